package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/shared"
	"github.com/desertthunder/discog/internal/tasks"
)

// LineKind selects how a result line is styled.
type LineKind int

const (
	LineOK LineKind = iota
	LineError
	LineWarn
)

// Line is one console line printed when an artist finishes.
type Line struct {
	Kind LineKind
	Text string
}

// ResultLines returns the lines reported for a finished artist, warnings first.
func ResultLines(res *tasks.ArtistResult) []Line {
	if res == nil {
		return nil
	}

	switch res.Status {
	case models.RunNotFound:
		return []Line{{LineError, fmt.Sprintf("❌ Artist '%s' not found.", res.Artist)}}
	case models.RunFailed:
		return []Line{{LineError, fmt.Sprintf("❌ [%d/%d] Error processing '%s': %v", res.Index, res.Count, res.Artist, res.Err)}}
	}

	var lines []Line
	if res.CoverErr != nil {
		if errors.Is(res.CoverErr, shared.ErrImageDownload) {
			lines = append(lines, Line{LineWarn, fmt.Sprintf("⚠️ Could not download cover image for %s.", res.Artist)})
		} else {
			lines = append(lines, Line{LineWarn, fmt.Sprintf("⚠️ Could not set cover image for %s: %v", res.Artist, res.CoverErr)})
		}
	}

	var msg string
	if res.Added > 0 {
		msg = fmt.Sprintf("Added %d tracks to \"%s\".", res.Added, res.PlaylistName)
	} else {
		msg = fmt.Sprintf("No new tracks for \"%s\". Playlist is up to date.", res.PlaylistName)
	}
	return append(lines, Line{LineOK, fmt.Sprintf("✅ [%d/%d] %s", res.Index, res.Count, msg)})
}

// PrintPlain writes the result lines of every finished artist to w until updates is closed.
func PrintPlain(w io.Writer, updates <-chan tasks.ProgressUpdate) {
	for update := range updates {
		if update.Phase != tasks.ArtistDone {
			continue
		}
		res, _ := update.Data.(*tasks.ArtistResult)
		for _, line := range ResultLines(res) {
			fmt.Fprintln(w, line.Text)
		}
	}
}
