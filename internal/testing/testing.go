// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/shared"
)

// MockService is an in-memory test double for [services.Service].
//
// Errors in Errs are returned by the method with the matching name, e.g. Errs["AddTracks"].
// Every call is recorded in Calls as "Method arg".
type MockService struct {
	mu sync.Mutex

	User      models.User
	Artists   map[string]models.Artist  // keyed by search name
	Albums    map[string][]models.Album // keyed by artist ID
	Tracks    map[string][]models.Track // keyed by album ID
	Playlists []models.Playlist
	Items     map[string][]string // playlist ID to track IDs
	Covers    map[string][]byte
	Errs      map[string]error
	Calls     []string

	// AddBatches records each AddTracks call's ids.
	AddBatches [][]string

	created int
}

// NewMockService returns a MockService for a user with ID "owner".
func NewMockService() *MockService {
	return &MockService{
		User:    models.User{ID: "owner", DisplayName: "Owner"},
		Artists: map[string]models.Artist{},
		Albums:  map[string][]models.Album{},
		Tracks:  map[string][]models.Track{},
		Items:   map[string][]string{},
		Covers:  map[string][]byte{},
		Errs:    map[string]error{},
	}
}

// AddArtist registers an artist with one album per entry in releases, each holding the given track IDs.
func (m *MockService) AddArtist(name, imageURL string, releases map[string][]string) models.Artist {
	m.mu.Lock()
	defer m.mu.Unlock()

	artist := models.Artist{ID: "artist-" + name, Name: name, ImageURL: imageURL}
	m.Artists[name] = artist

	for date, ids := range releases {
		album := models.Album{ID: fmt.Sprintf("%s-%s", artist.ID, date), Name: date, ReleaseDate: date, Type: "album"}
		m.Albums[artist.ID] = append(m.Albums[artist.ID], album)
		for _, id := range ids {
			m.Tracks[album.ID] = append(m.Tracks[album.ID], models.Track{ID: id, Name: id})
		}
	}
	return artist
}

// AddPlaylist registers a playlist with the given items.
func (m *MockService) AddPlaylist(id, name, owner string, items ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Playlists = append(m.Playlists, models.Playlist{ID: id, Name: name, OwnerID: owner, TrackCount: len(items), Public: true})
	m.Items[id] = append([]string(nil), items...)
}

// Called reports how many recorded calls match call exactly.
func (m *MockService) Called(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.Calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *MockService) record(method, arg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, method+" "+arg)
	return m.Errs[method]
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if err := m.record("CurrentUser", ""); err != nil {
		return nil, err
	}
	user := m.User
	return &user, nil
}

func (m *MockService) SearchArtist(ctx context.Context, name string) (*models.Artist, error) {
	if err := m.record("SearchArtist", name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	artist, ok := m.Artists[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
	}
	return &artist, nil
}

func (m *MockService) ArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error) {
	if err := m.record("ArtistAlbums", artistID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Album(nil), m.Albums[artistID]...), nil
}

func (m *MockService) AlbumTracks(ctx context.Context, album models.Album) ([]models.Track, error) {
	if err := m.record("AlbumTracks", album.ID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var tracks []models.Track
	for _, t := range m.Tracks[album.ID] {
		t.ReleaseDate = album.ReleaseDate
		t.AlbumID = album.ID
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func (m *MockService) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := m.record("UserPlaylists", ""); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Playlist(nil), m.Playlists...), nil
}

func (m *MockService) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	if err := m.record("PlaylistTrackIDs", playlistID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.Items[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
	}
	return append([]string(nil), items...), nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if err := m.record("CreatePlaylist", name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	p := models.Playlist{ID: fmt.Sprintf("created-%d", m.created), Name: name, OwnerID: userID, Public: public}
	m.Playlists = append(m.Playlists, p)
	m.Items[p.ID] = nil
	return &p, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, ids []string) (int, error) {
	if err := m.record("AddTracks", playlistID); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddBatches = append(m.AddBatches, append([]string(nil), ids...))
	m.Items[playlistID] = append(m.Items[playlistID], ids...)
	return len(ids), nil
}

func (m *MockService) SetPlaylistCover(ctx context.Context, playlistID string, jpeg []byte) error {
	if err := m.record("SetPlaylistCover", playlistID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Covers[playlistID] = jpeg
	return nil
}

// MockDownloader serves image bytes from memory.
type MockDownloader struct {
	Images map[string][]byte
	Err    error
}

func (m *MockDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	data, ok := m.Images[url]
	if !ok {
		return nil, fmt.Errorf("%w: HTTP status 404", shared.ErrImageDownload)
	}
	return data, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// AssertFileExists fails the test when path does not exist
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
