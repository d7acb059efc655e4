package ui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/shared"
	"github.com/desertthunder/discog/internal/tasks"
)

func TestResultLines(t *testing.T) {
	tests := []struct {
		name string
		res  *tasks.ArtistResult
		want []string
	}{
		{
			name: "added",
			res:  &tasks.ArtistResult{Artist: "Low", Index: 2, Count: 5, PlaylistName: "Low Discography", Added: 12, Status: models.RunOK},
			want: []string{`✅ [2/5] Added 12 tracks to "Low Discography".`},
		},
		{
			name: "up to date",
			res:  &tasks.ArtistResult{Artist: "Low", Index: 1, Count: 1, PlaylistName: "Low Discography", Status: models.RunOK},
			want: []string{`✅ [1/1] No new tracks for "Low Discography". Playlist is up to date.`},
		},
		{
			name: "not found",
			res:  &tasks.ArtistResult{Artist: "Nobody", Index: 3, Count: 5, Status: models.RunNotFound},
			want: []string{"❌ Artist 'Nobody' not found."},
		},
		{
			name: "failed",
			res:  &tasks.ArtistResult{Artist: "Low", Index: 4, Count: 5, Status: models.RunFailed, Err: errors.New("boom")},
			want: []string{"❌ [4/5] Error processing 'Low': boom"},
		},
		{
			name: "cover download warning",
			res: &tasks.ArtistResult{
				Artist: "Low", Index: 1, Count: 1, PlaylistName: "Low Discography", Added: 1, Status: models.RunOK,
				CoverErr: fmt.Errorf("%w: HTTP status 404", shared.ErrImageDownload),
			},
			want: []string{"⚠️ Could not download cover image for Low.", `✅ [1/1] Added 1 tracks to "Low Discography".`},
		},
		{
			name: "cover upload warning",
			res: &tasks.ArtistResult{
				Artist: "Low", Index: 1, Count: 1, PlaylistName: "Low Discography", Status: models.RunOK,
				CoverErr: errors.New("rejected"),
			},
			want: []string{"⚠️ Could not set cover image for Low: rejected", `✅ [1/1] No new tracks for "Low Discography". Playlist is up to date.`},
		},
		{name: "nil", res: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := ResultLines(tt.res)
			if len(lines) != len(tt.want) {
				t.Fatalf("expected %d lines, got %v", len(tt.want), lines)
			}
			for i, l := range lines {
				if l.Text != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, l.Text, tt.want[i])
				}
			}
		})
	}
}

func TestPrintPlain(t *testing.T) {
	updates := make(chan tasks.ProgressUpdate, 4)
	updates <- tasks.ProgressUpdate{Phase: tasks.SearchArtist, Artist: "Low"}
	updates <- tasks.ProgressUpdate{Phase: tasks.ArtistDone, Data: &tasks.ArtistResult{Artist: "Nobody", Status: models.RunNotFound}}
	updates <- tasks.ProgressUpdate{Phase: tasks.ArtistDone, Data: &tasks.ArtistResult{
		Artist: "Low", Index: 2, Count: 2, PlaylistName: "Low Discography", Added: 3, Status: models.RunOK,
	}}
	close(updates)

	var buf bytes.Buffer
	PrintPlain(&buf, updates)

	want := "❌ Artist 'Nobody' not found.\n✅ [2/2] Added 3 tracks to \"Low Discography\".\n"
	if buf.String() != want {
		t.Errorf("PrintPlain() = %q, want %q", buf.String(), want)
	}
}

func TestArtistLabel(t *testing.T) {
	label := ArtistLabel(tasks.ProgressUpdate{Artist: "Low", Phase: tasks.CollectTracks})
	if label != "[Low] Getting all songs"+strings.Repeat(" ", 30-len("Getting all songs")) {
		t.Errorf("unexpected label %q", label)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[time.Duration]string{
		0:                                  "0:00:00",
		12 * time.Second:                   "0:00:12",
		61*time.Minute + 5*time.Second:     "1:01:05",
		2*time.Hour + 400*time.Millisecond: "2:00:00",
	}
	for d, want := range tests {
		if got := formatElapsed(d); got != want {
			t.Errorf("formatElapsed(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestProgressModel(t *testing.T) {
	t.Run("renders bars", func(t *testing.T) {
		updates := make(chan tasks.ProgressUpdate, 1)
		m := NewProgressModel(4, 1, updates, nil)

		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.CollectTracks, Artist: "Low", Step: 2, Total: 7}))

		view := m.View()
		if !strings.Contains(view, "Updating 4 artists") {
			t.Errorf("missing overall label:\n%s", view)
		}
		if !strings.Contains(view, " 25%") {
			t.Errorf("missing overall percent:\n%s", view)
		}
		if !strings.Contains(view, "[Low] Getting all songs") || !strings.Contains(view, " 29%") {
			t.Errorf("missing artist bar:\n%s", view)
		}
	})

	t.Run("finished artist", func(t *testing.T) {
		updates := make(chan tasks.ProgressUpdate, 1)
		m := NewProgressModel(2, 0, updates, nil)

		res := &tasks.ArtistResult{Artist: "Low", Index: 1, Count: 2, PlaylistName: "Low Discography", Added: 2, Status: models.RunOK}
		_, cmd := m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.ArtistDone, Artist: "Low", Data: res}))

		if cmd == nil {
			t.Fatal("expected print command")
		}
		if m.Done() != 1 {
			t.Errorf("expected 1 done, got %d", m.Done())
		}
		if strings.Contains(m.View(), "[Low]") {
			t.Error("finished artist bar should be hidden")
		}
	})

	t.Run("cancel", func(t *testing.T) {
		calls := 0
		m := NewProgressModel(1, 0, make(chan tasks.ProgressUpdate), func() { calls++ })

		m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		if calls != 1 || !m.Cancelled() {
			t.Errorf("expected one cancel call, got %d", calls)
		}
		if !strings.Contains(m.View(), "Cancelling") {
			t.Error("expected cancelling notice")
		}
	})

	t.Run("quits when updates close", func(t *testing.T) {
		updates := make(chan tasks.ProgressUpdate)
		close(updates)
		m := NewProgressModel(1, 0, updates, nil)

		msg := m.waitForUpdate()()
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.View() != "" {
			t.Error("finished view should be empty")
		}
	})

	t.Run("tick", func(t *testing.T) {
		m := NewProgressModel(1, 0, make(chan tasks.ProgressUpdate), nil)
		later := m.started.Add(75 * time.Second)

		m.Update(tickMsg(later))
		if !strings.Contains(m.View(), "0:01:15") {
			t.Errorf("expected elapsed time in view:\n%s", m.View())
		}
	})
}
