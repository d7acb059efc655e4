// package formatter renders journal runs and playlists for the console (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/shared"
)

// Output formats accepted by [FormatRuns].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

const timeLayout = "2006-01-02 15:04:05"

// runJSON is the exported shape of a [models.Run].
type runJSON struct {
	ID              string           `json:"id"`
	BatchID         string           `json:"batch_id"`
	Artist          string           `json:"artist"`
	ArtistID        string           `json:"artist_id,omitempty"`
	PlaylistID      string           `json:"playlist_id,omitempty"`
	PlaylistName    string           `json:"playlist_name"`
	CreatedPlaylist bool             `json:"created_playlist"`
	Added           int              `json:"added"`
	CoverSet        bool             `json:"cover_set"`
	Status          models.RunStatus `json:"status"`
	Error           string           `json:"error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
}

// FormatRuns renders runs in the named format.
func FormatRuns(runs []*models.Run, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return RunsToText(runs)
	case FormatCSV:
		return RunsToCSV(runs)
	case FormatMarkdown, "md":
		return RunsToMarkdown(runs)
	case FormatJSON:
		return RunsToJSON(runs)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// RunsToCSV converts runs to CSV with columns: ID, Batch, Artist, Playlist, Status, Added, Created, Cover, Error, Started, Duration
func RunsToCSV(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Batch", "Artist", "Playlist", "Status", "Added", "Created", "Cover", "Error", "Started", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		record := []string{
			run.ID(),
			run.BatchID,
			run.Artist,
			run.PlaylistName,
			string(run.Status),
			strconv.Itoa(run.Added),
			strconv.FormatBool(run.CreatedPlaylist),
			strconv.FormatBool(run.CoverSet),
			run.Error,
			run.CreatedAt().Format(time.RFC3339),
			formatDuration(run),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RunsToMarkdown converts runs to a Markdown table
func RunsToMarkdown(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Sync history\n\n")
	if len(runs) == 0 {
		buf.WriteString("_No runs recorded._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Started | Artist | Playlist | Status | Added | Notes |\n")
	buf.WriteString("|---|---|---|---|---:|---|\n")
	for _, run := range runs {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %d | %s |\n",
			run.CreatedAt().Local().Format(timeLayout),
			escapeCell(run.Artist),
			escapeCell(run.PlaylistName),
			run.Status,
			run.Added,
			escapeCell(notes(run)),
		)
	}

	return buf.Bytes(), nil
}

// RunsToText converts runs to aligned plain text, one line per run
func RunsToText(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer

	if len(runs) == 0 {
		buf.WriteString("No runs recorded.\n")
		return buf.Bytes(), nil
	}

	width := lipgloss.Width("Artist")
	for _, run := range runs {
		width = max(width, lipgloss.Width(run.Artist))
	}

	fmt.Fprintf(&buf, "%-19s  %s  %-9s  %5s  %s\n", "Started", pad("Artist", width), "Status", "Added", "Notes")
	for _, run := range runs {
		fmt.Fprintf(&buf, "%-19s  %s  %-9s  %5d  %s\n",
			run.CreatedAt().Local().Format(timeLayout),
			pad(run.Artist, width),
			run.Status,
			run.Added,
			notes(run),
		)
	}

	return buf.Bytes(), nil
}

// RunsToJSON converts runs to an indented JSON array
func RunsToJSON(runs []*models.Run) ([]byte, error) {
	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, runJSON{
			ID:              run.ID(),
			BatchID:         run.BatchID,
			Artist:          run.Artist,
			ArtistID:        run.ArtistID,
			PlaylistID:      run.PlaylistID,
			PlaylistName:    run.PlaylistName,
			CreatedPlaylist: run.CreatedPlaylist,
			Added:           run.Added,
			CoverSet:        run.CoverSet,
			Status:          run.Status,
			Error:           run.Error,
			CreatedAt:       run.CreatedAt(),
			FinishedAt:      run.FinishedAt,
		})
	}
	return shared.MarshalJSON(out, true)
}

// PlaylistsToText lists discography playlists as "<artist>  <tracks> tracks  <id>"
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer

	if len(playlists) == 0 {
		buf.WriteString("No discography playlists found.\n")
		return buf.Bytes()
	}

	width := 0
	for _, p := range playlists {
		width = max(width, lipgloss.Width(p.Name))
	}
	for _, p := range playlists {
		fmt.Fprintf(&buf, "%s  %5d tracks  %s  %s\n", pad(p.Name, width), p.TrackCount, visibility(p.Public), p.ID)
	}

	return buf.Bytes()
}

// PlaylistsToJSON converts playlists to an indented JSON array
func PlaylistsToJSON(playlists []models.Playlist) ([]byte, error) {
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	return shared.MarshalJSON(playlists, true)
}

func notes(run *models.Run) string {
	var parts []string
	if run.CreatedPlaylist {
		parts = append(parts, "created playlist")
	}
	if run.CoverSet {
		parts = append(parts, "cover set")
	}
	if run.Error != "" {
		parts = append(parts, run.Error)
	}
	return strings.Join(parts, "; ")
}

func formatDuration(run *models.Run) string {
	d := run.Duration()
	if d == 0 {
		return ""
	}
	return d.Round(time.Millisecond).String()
}

func visibility(public bool) string {
	if public {
		return "public "
	}
	return "private"
}

// pad right-pads s with spaces to width terminal cells.
func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>", "\r", "<br>")

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}
