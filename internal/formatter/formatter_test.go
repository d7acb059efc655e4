package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/shared"
)

func sampleRuns() []*models.Run {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ok := models.NewRun("batch-1", "Slowdive")
	ok.SetID("run-1")
	ok.SetCreatedAt(started)
	ok.PlaylistID = "pl-1"
	ok.CreatedPlaylist = true
	ok.CoverSet = true
	ok.Added = 12
	finished := started.Add(1500 * time.Millisecond)
	ok.Status = models.RunOK
	ok.FinishedAt = &finished

	failed := models.NewRun("batch-1", "Low | Band")
	failed.SetID("run-2")
	failed.SetCreatedAt(started.Add(time.Minute))
	failed.Finish(models.RunFailed, errors.New("failed to add tracks: API request failed"))

	return []*models.Run{ok, failed}
}

func TestRunsToCSV(t *testing.T) {
	data, err := RunsToCSV(sampleRuns())
	if err != nil {
		t.Fatalf("RunsToCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header and 2 records, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "ID,Batch,Artist,Playlist,Status,Added,Created,Cover,Error,Started,Duration" {
		t.Errorf("unexpected headers %v", records[0])
	}

	first := records[1]
	if first[0] != "run-1" || first[2] != "Slowdive" || first[3] != "Slowdive Discography" {
		t.Errorf("unexpected record %v", first)
	}
	if first[4] != "ok" || first[5] != "12" || first[6] != "true" || first[7] != "true" {
		t.Errorf("unexpected record %v", first)
	}
	if first[9] != "2025-03-01T12:00:00Z" || first[10] != "1.5s" {
		t.Errorf("unexpected timing columns %v", first[9:])
	}

	if records[2][8] != "failed to add tracks: API request failed" {
		t.Errorf("expected error column, got %q", records[2][8])
	}
}

func TestRunsToMarkdown(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		data, err := RunsToMarkdown(sampleRuns())
		if err != nil {
			t.Fatalf("RunsToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Sync history",
			"| Started | Artist | Playlist | Status | Added | Notes |",
			"| Slowdive | Slowdive Discography | ok | 12 | created playlist; cover set |",
			`Low \| Band`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("multiline error", func(t *testing.T) {
		run := models.NewRun("batch-1", "Low")
		run.SetID("run-3")
		run.Finish(models.RunFailed, errors.New("first line\nsecond line\r\nthird"))

		data, err := RunsToMarkdown([]*models.Run{run})
		if err != nil {
			t.Fatalf("RunsToMarkdown failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 5 {
			t.Fatalf("expected title, blank, header, separator and one row, got %d lines:\n%s", len(lines), data)
		}
		if !strings.Contains(lines[4], "first line<br>second line<br>third |") {
			t.Errorf("newlines not escaped: %q", lines[4])
		}
	})

	t.Run("empty", func(t *testing.T) {
		data, _ := RunsToMarkdown(nil)
		if !strings.Contains(string(data), "_No runs recorded._") {
			t.Errorf("unexpected output %q", data)
		}
	})
}

func TestRunsToText(t *testing.T) {
	data, err := RunsToText(sampleRuns())
	if err != nil {
		t.Fatalf("RunsToText failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "Started") {
		t.Errorf("expected header line, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "Slowdive") || !strings.Contains(lines[1], "ok") || !strings.Contains(lines[1], "12") {
		t.Errorf("unexpected line %q", lines[1])
	}
	if !strings.Contains(lines[2], "failed") || !strings.Contains(lines[2], "API request failed") {
		t.Errorf("unexpected line %q", lines[2])
	}

	t.Run("wide characters", func(t *testing.T) {
		accented := models.NewRun("batch-1", "Sigur Rós")
		plain := models.NewRun("batch-1", "Low")
		data, _ := RunsToText([]*models.Run{accented, plain})
		assertAligned(t, string(data), "running")
	})

	empty, _ := RunsToText(nil)
	if string(empty) != "No runs recorded.\n" {
		t.Errorf("unexpected empty output %q", empty)
	}
}

func TestRunsToJSON(t *testing.T) {
	data, err := RunsToJSON(sampleRuns())
	if err != nil {
		t.Fatalf("RunsToJSON failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(decoded))
	}
	if decoded[0]["artist"] != "Slowdive" || decoded[0]["added"] != float64(12) || decoded[0]["status"] != "ok" {
		t.Errorf("unexpected run %v", decoded[0])
	}
	if _, ok := decoded[0]["error"]; ok {
		t.Error("empty error should be omitted")
	}

	empty, _ := RunsToJSON(nil)
	if strings.TrimSpace(string(empty)) != "[]" {
		t.Errorf("expected empty array, got %s", empty)
	}
}

func TestFormatRuns(t *testing.T) {
	tests := []struct {
		format string
		prefix string
	}{
		{format: "", prefix: "Started"},
		{format: "text", prefix: "Started"},
		{format: "CSV", prefix: "ID,Batch"},
		{format: "markdown", prefix: "# Sync history"},
		{format: "md", prefix: "# Sync history"},
		{format: "json", prefix: "["},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := FormatRuns(sampleRuns(), tt.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(string(data), tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, data)
			}
		})
	}

	if _, err := FormatRuns(nil, "yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestPlaylists(t *testing.T) {
	playlists := []models.Playlist{
		{ID: "p1", Name: "Slowdive Discography", TrackCount: 61, Public: true},
		{ID: "p2", Name: "Low Discography", TrackCount: 230},
	}

	text := string(PlaylistsToText(playlists))
	if !strings.Contains(text, "Slowdive Discography     61 tracks  public   p1") {
		t.Errorf("unexpected text output:\n%s", text)
	}
	if !strings.Contains(text, "private  p2") {
		t.Errorf("unexpected text output:\n%s", text)
	}
	wide := string(PlaylistsToText([]models.Playlist{
		{ID: "p3", Name: "Sigur Rós Discography", TrackCount: 90},
		{ID: "p4", Name: "Björk Discography", TrackCount: 150},
		{ID: "p5", Name: "Low Discography", TrackCount: 230},
	}))
	assertAligned(t, wide, "tracks")

	if string(PlaylistsToText(nil)) != "No discography playlists found.\n" {
		t.Error("unexpected empty output")
	}

	data, err := PlaylistsToJSON(playlists)
	if err != nil {
		t.Fatalf("PlaylistsToJSON failed: %v", err)
	}
	var decoded []models.Playlist
	if err := json.Unmarshal(data, &decoded); err != nil || len(decoded) != 2 {
		t.Errorf("unexpected JSON %s (%v)", data, err)
	}

	empty, _ := PlaylistsToJSON(nil)
	if strings.TrimSpace(string(empty)) != "[]" {
		t.Errorf("expected empty array, got %s", empty)
	}
}

// assertAligned checks that marker starts in the same terminal column on every line that contains it.
func assertAligned(t *testing.T, text, marker string) {
	t.Helper()

	column := -1
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		i := strings.Index(line, marker)
		if i < 0 {
			continue
		}
		c := utf8.RuneCountInString(line[:i])
		if column >= 0 && c != column {
			t.Errorf("%q starts at column %d, want %d:\n%s", marker, c, column, text)
		}
		column = c
	}
	if column < 0 {
		t.Errorf("%q not found in:\n%s", marker, text)
	}
}
