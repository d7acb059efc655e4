// package services defines interface Service for interacting with the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/discog/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the remote operations needed to build discography playlists.
//
// Every listing method follows pagination to the end.
type Service interface {
	// Name returns the name of the service (e.g., "Spotify")
	Name() string

	// CurrentUser returns the authenticated account.
	CurrentUser(ctx context.Context) (*models.User, error)

	// SearchArtist returns the first artist matching name.
	// Returns [shared.ErrArtistNotFound] when the search has no results.
	SearchArtist(ctx context.Context, name string) (*models.Artist, error)

	// ArtistAlbums returns the artist's albums, singles and compilations.
	ArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error)

	// AlbumTracks returns the tracks of album, each stamped with the album's release date.
	AlbumTracks(ctx context.Context, album models.Album) ([]models.Track, error)

	// UserPlaylists returns every playlist in the current user's library.
	UserPlaylists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistTrackIDs returns the track IDs in a playlist, skipping items without a track.
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)

	// CreatePlaylist creates a playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends ids to the playlist in order and returns how many were added.
	AddTracks(ctx context.Context, playlistID string, ids []string) (int, error)

	// SetPlaylistCover replaces the playlist image with a JPEG.
	SetPlaylistCover(ctx context.Context, playlistID string, jpeg []byte) error
}

// OAuthService extends [Service] for providers authorized with the OAuth2 authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the URL the user visits to grant access.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the client configuration used to exchange codes.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate configures the service with an existing token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// Token returns the current token, including any refresh performed since authentication.
	Token() *oauth2.Token
}
