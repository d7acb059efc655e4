package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/discog/internal/tasks"
)

const (
	stepWidth       = 30
	defaultBarWidth = 30
)

// ProgressModel renders a sync as an overall bar and a bar for the artist being processed.
//
// It reads updates until the channel is closed, then quits. Finished artists are printed above the bars.
type ProgressModel struct {
	updates <-chan tasks.ProgressUpdate
	cancel  context.CancelFunc

	count   int
	done    int
	current tasks.ProgressUpdate
	started time.Time
	now     time.Time

	cancelled bool
	finished  bool

	spinner spinner.Model
	overall progress.Model
	artist  progress.Model
	help    help.Model
	keys    keyMap
}

// NewProgressModel creates a model for a run over count artists of which done are already finished.
// cancel is called once when the user presses ctrl+c.
func NewProgressModel(count, done int, updates <-chan tasks.ProgressUpdate, cancel context.CancelFunc) *ProgressModel {
	now := time.Now()
	return &ProgressModel{
		updates: updates,
		cancel:  cancel,
		count:   count,
		done:    done,
		started: now,
		now:     now,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title)),
		overall: newBar(),
		artist:  newBar(),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

func newBar() progress.Model {
	return progress.New(
		progress.WithGradient(styles.barFrom, styles.barTo),
		progress.WithWidth(defaultBarWidth),
		progress.WithoutPercentage(),
	)
}

// Run starts a bubbletea program for m and blocks until the updates channel is closed.
func Run(m *ProgressModel, opts ...tea.ProgramOption) error {
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("error running progress display: %w", err)
	}
	return nil
}

// Cancelled reports whether the user asked to stop the run.
func (m *ProgressModel) Cancelled() bool {
	return m.cancelled
}

// Done returns the number of artists finished so far.
func (m *ProgressModel) Done() int {
	return m.done
}

func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate(), tick())
}

func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.cancel) && !m.cancelled {
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := max(10, min(defaultBarWidth, msg.Width-stepWidth-30))
		m.overall.Width = width
		m.artist.Width = width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			return m, m.handleUpdate(msg.data.(tasks.ProgressUpdate))
		case MsgUpdatesClosed:
			m.finished = true
			return m, tea.Quit
		case MsgTick:
			m.now = msg.data.(time.Time)
			if m.finished {
				return m, nil
			}
			return m, tick()
		}
	}

	return m, nil
}

func (m *ProgressModel) handleUpdate(update tasks.ProgressUpdate) tea.Cmd {
	if update.Phase != tasks.ArtistDone {
		m.current = update
		return m.waitForUpdate()
	}

	m.done++
	m.current = tasks.ProgressUpdate{}

	res, _ := update.Data.(*tasks.ArtistResult)
	lines := ResultLines(res)
	if len(lines) == 0 {
		return m.waitForUpdate()
	}

	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = styles.Line(l)
	}
	return tea.Sequence(tea.Println(strings.Join(rendered, "\n")), m.waitForUpdate())
}

func (m *ProgressModel) View() string {
	if m.finished {
		return ""
	}

	elapsed := formatElapsed(m.now.Sub(m.started))

	var b strings.Builder
	overall := 0.0
	if m.count > 0 {
		overall = float64(m.done) / float64(m.count)
	}
	label := fmt.Sprintf("Updating %d artists", m.count)
	fmt.Fprintf(&b, "%s %-*s %s %3.0f%% %s\n", m.spinner.View(), stepWidth+len("[] ")+len(m.current.Artist), label,
		m.overall.ViewAs(overall), overall*100, elapsed)

	if m.current.Artist != "" {
		fmt.Fprintf(&b, "%s %s %s %3.0f%% %s\n", m.spinner.View(), ArtistLabel(m.current),
			m.artist.ViewAs(m.current.Percent()), m.current.Percent()*100, elapsed)
	}

	if m.cancelled {
		b.WriteString(styles.warn.Render("Cancelling after the current step..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
		b.WriteString("\n")
	}

	return b.String()
}

// ArtistLabel is the description shown next to an artist's bar: "[<Artist>] <step padded to 30>".
func ArtistLabel(update tasks.ProgressUpdate) string {
	return fmt.Sprintf("[%s] %-*s", update.Artist, stepWidth, update.Phase.Description())
}

func (m *ProgressModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return updatesClosedMsg()
		}
		return progressUpdateMsg(update)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// formatElapsed renders d as H:MM:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	mins := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, mins, s)
}
