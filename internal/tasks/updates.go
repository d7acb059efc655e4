package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a sync.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Artist  string // Artist being processed
	Index   int    // 1-based position of the artist in the run
	Count   int    // Number of artists in the run
	Step    int    // Steps completed for this artist
	Total   int    // Total steps per artist
	Message string // Human-readable message for display
	Data    any    // *ArtistResult for [ArtistDone]
}

// Percent is the fraction of the artist's steps completed, in [0, 1].
func (u ProgressUpdate) Percent() float64 {
	if u.Total <= 0 {
		return 0
	}
	return float64(u.Step) / float64(u.Total)
}

// Operation phase enumeration
type Phase int

const (
	SearchArtist Phase = iota
	FindPlaylist
	CollectTracks
	ExistingTracks
	CreatePlaylist
	AddNewTracks
	AddTracks
	DownloadCover
	SetCover
	ArtistDone
)

func (p Phase) String() string {
	switch p {
	case SearchArtist:
		return "search_artist"
	case FindPlaylist:
		return "find_playlist"
	case CollectTracks:
		return "collect_tracks"
	case ExistingTracks:
		return "existing_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddNewTracks:
		return "add_new_tracks"
	case AddTracks:
		return "add_tracks"
	case DownloadCover:
		return "download_cover"
	case SetCover:
		return "set_cover"
	case ArtistDone:
		return "artist_done"
	default:
		return ""
	}
}

// Description is the step label shown next to the artist's progress bar.
func (p Phase) Description() string {
	switch p {
	case SearchArtist:
		return "Getting artist info"
	case FindPlaylist:
		return "Finding playlist"
	case CollectTracks:
		return "Getting all songs"
	case ExistingTracks:
		return "Getting existing tracks"
	case CreatePlaylist:
		return "Creating playlist"
	case AddNewTracks:
		return "Adding new tracks"
	case AddTracks:
		return "Adding tracks"
	case DownloadCover:
		return "Downloading cover image"
	case SetCover:
		return "Setting cover image"
	case ArtistDone:
		return "Done"
	default:
		return ""
	}
}

// ProgressBuffer returns a channel capacity large enough to hold every update of a run over count artists.
func ProgressBuffer(count int) int {
	return count*(StepsPerArtist+1) + 1
}

func stepUpdate(res *ArtistResult, phase Phase, step int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Artist:  res.Artist,
		Index:   res.Index,
		Count:   res.Count,
		Step:    step,
		Total:   StepsPerArtist,
		Message: fmt.Sprintf("[%s] %s", res.Artist, phase.Description()),
	}
}

func artistDoneUpdate(res *ArtistResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ArtistDone,
		Artist:  res.Artist,
		Index:   res.Index,
		Count:   res.Count,
		Step:    StepsPerArtist,
		Total:   StepsPerArtist,
		Message: fmt.Sprintf("[%d/%d] %s: %s", res.Index, res.Count, res.Artist, res.Status),
		Data:    res,
	}
}
