package models

import (
	"fmt"
	"strings"
	"time"
)

// PlaylistSuffix is appended to an artist name to form its playlist name.
const PlaylistSuffix = " Discography"

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// User is the authenticated account that owns the playlists.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Artist is the result of an artist search.
type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"` // largest image, empty when the artist has none
}

// Album is one release in an artist's catalogue.
type Album struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"` // YYYY, YYYY-MM or YYYY-MM-DD
	Type        string `json:"type"`
}

// Track is a single song, stamped with its album's release date for ordering.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	AlbumID     string `json:"album_id"`
}

// Playlist is a playlist as listed for the current user.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OwnerID    string `json:"owner_id"`
	TrackCount int    `json:"track_count"`
	Public     bool   `json:"public"`
}

// PlaylistName returns the discography playlist name for artist.
func PlaylistName(artist string) string {
	return artist + PlaylistSuffix
}

// ArtistFromPlaylistName extracts the artist from a discography playlist name.
func ArtistFromPlaylistName(name string) (string, bool) {
	artist, ok := strings.CutSuffix(name, PlaylistSuffix)
	if !ok || artist == "" {
		return "", false
	}
	return artist, true
}

// RunStatus is the outcome of processing one artist.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunOK       RunStatus = "ok"
	RunNotFound RunStatus = "not_found"
	RunFailed   RunStatus = "failed"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunRunning, RunOK, RunNotFound, RunFailed:
		return true
	}
	return false
}

// Run is the journal record for one artist processed by a sync.
//
// Runs started by the same invocation share a BatchID.
type Run struct {
	id        string
	createdAt time.Time
	updatedAt time.Time

	BatchID         string
	Artist          string
	ArtistID        string
	PlaylistID      string
	PlaylistName    string
	CreatedPlaylist bool
	Added           int
	CoverSet        bool
	Status          RunStatus
	Error           string
	FinishedAt      *time.Time
}

// NewRun creates a running journal entry for artist.
func NewRun(batchID, artist string) *Run {
	now := time.Now().UTC()
	return &Run{
		createdAt:    now,
		updatedAt:    now,
		BatchID:      batchID,
		Artist:       artist,
		PlaylistName: PlaylistName(artist),
		Status:       RunRunning,
	}
}

func (r *Run) ID() string           { return r.id }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }

func (r *Run) SetID(id string)          { r.id = id }
func (r *Run) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Finish records the final status and error of the run.
func (r *Run) Finish(status RunStatus, err error) {
	now := time.Now().UTC()
	r.Status = status
	r.FinishedAt = &now
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is the time from creation to finish, or zero while running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.createdAt)
}

func (r *Run) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run id is required")
	}
	if r.BatchID == "" {
		return fmt.Errorf("batch id is required")
	}
	if strings.TrimSpace(r.Artist) == "" {
		return fmt.Errorf("artist is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if r.Added < 0 {
		return fmt.Errorf("added count cannot be negative")
	}
	return nil
}
