// Spotify API implementation of [Service]
//
// Requests go through github.com/zmb3/spotify/v2; see https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyPageSize = 50
	// Maximum number of items accepted by a single add-items request.
	spotifyAddLimit = 100

	defaultRedirectURI = "http://127.0.0.1:3000/callback"
)

// SpotifyScopes are the OAuth2 scopes needed to read and modify playlists and upload covers.
var SpotifyScopes = []string{
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeImageUpload,
	spotifyauth.ScopeUserReadPrivate,
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the client at a different API root, e.g. an [httptest.Server].
func WithBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) {
		s.baseURL = url
	}
}

// WithTokenURL overrides the OAuth2 token endpoint.
func WithTokenURL(url string) SpotifyOption {
	return func(s *SpotifyService) {
		s.config.Endpoint.TokenURL = url
	}
}

// WithRateLimit paces outgoing requests to at most rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		s.rps = rps
	}
}

// WithTokenNotify registers fn to receive every token obtained by a refresh.
func WithTokenNotify(fn func(*oauth2.Token)) SpotifyOption {
	return func(s *SpotifyService) {
		s.notify = fn
	}
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for playlist and track operations.
type SpotifyService struct {
	config      *oauth2.Config
	httpClient  *http.Client
	credentials map[string]string
	baseURL     string
	rps         float64
	notify      func(*oauth2.Token)

	mu     sync.Mutex
	token  *oauth2.Token
	client *spotify.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       SpotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		httpClient:  &http.Client{},
		credentials: credentials,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.rps > 0 {
		base := s.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		paced := *s.httpClient
		paced.Transport = newPacer(base, s.rps)
		s.httpClient = &paced
	}

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration for use by the callback server.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(s.oauthContext(ctx), authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

// OAuthenticate builds the API client around token.
//
// Expired tokens are refreshed on demand by the oauth2 transport; each refreshed token is passed to the
// [WithTokenNotify] callback.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: token is empty", shared.ErrNotAuthenticated)
	}

	octx := s.oauthContext(ctx)
	src := &notifyingTokenSource{
		src:    oauth2.ReuseTokenSource(token, s.config.TokenSource(octx, token)),
		last:   token.AccessToken,
		notify: s.tokenRefreshed,
	}

	var opts []spotify.ClientOption
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(withTrailingSlash(s.baseURL)))
	}

	s.mu.Lock()
	s.token = token
	s.client = spotify.New(oauth2.NewClient(octx, src), opts...)
	s.mu.Unlock()

	return nil
}

// Token returns the most recent token, or nil before authentication.
func (s *SpotifyService) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *SpotifyService) tokenRefreshed(token *oauth2.Token) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.notify != nil {
		s.notify(token)
	}
}

// oauthContext carries the service's HTTP client so token exchanges and refreshes share its transport.
func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *SpotifyService) api() (*spotify.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return s.client, nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, mapError("get current user", err)
	}

	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// SearchArtist searches for "artist:<name>" and returns the first result.
func (s *SpotifyService) SearchArtist(ctx context.Context, name string) (*models.Artist, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	result, err := c.Search(ctx, "artist:"+name, spotify.SearchTypeArtist)
	if err != nil {
		return nil, mapError("search artist", err)
	}

	if result.Artists == nil || len(result.Artists.Artists) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
	}

	found := result.Artists.Artists[0]
	artist := &models.Artist{ID: string(found.ID), Name: found.Name}
	if len(found.Images) > 0 {
		artist.ImageURL = found.Images[0].URL
	}
	return artist, nil
}

// ArtistAlbums retrieves every album, single and compilation released by the artist.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	types := []spotify.AlbumType{spotify.AlbumTypeAlbum, spotify.AlbumTypeSingle, spotify.AlbumTypeCompilation}
	page, err := c.GetArtistAlbums(ctx, spotify.ID(artistID), types, spotify.Limit(spotifyPageSize))
	if err != nil {
		return nil, mapError("get artist albums", err)
	}

	var albums []models.Album
	for {
		for _, a := range page.Albums {
			albums = append(albums, models.Album{
				ID:          string(a.ID),
				Name:        a.Name,
				ReleaseDate: a.ReleaseDate,
				Type:        a.AlbumType,
			})
		}

		if err := c.NextPage(ctx, page); errors.Is(err, spotify.ErrNoMorePages) {
			break
		} else if err != nil {
			return nil, mapError("get artist albums", err)
		}
	}

	return albums, nil
}

// AlbumTracks retrieves every track on album.
func (s *SpotifyService) AlbumTracks(ctx context.Context, album models.Album) ([]models.Track, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := c.GetAlbumTracks(ctx, spotify.ID(album.ID), spotify.Limit(spotifyPageSize))
	if err != nil {
		return nil, mapError("get album tracks", err)
	}

	var tracks []models.Track
	for {
		for _, t := range page.Tracks {
			if t.ID == "" {
				continue
			}
			tracks = append(tracks, models.Track{
				ID:          string(t.ID),
				Name:        t.Name,
				ReleaseDate: album.ReleaseDate,
				AlbumID:     album.ID,
			})
		}

		if err := c.NextPage(ctx, page); errors.Is(err, spotify.ErrNoMorePages) {
			break
		} else if err != nil {
			return nil, mapError("get album tracks", err)
		}
	}

	return tracks, nil
}

// UserPlaylists retrieves the current user's playlists, including followed playlists owned by others.
func (s *SpotifyService) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := c.CurrentUsersPlaylists(ctx, spotify.Limit(spotifyPageSize))
	if err != nil {
		return nil, mapError("get playlists", err)
	}

	var playlists []models.Playlist
	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, models.Playlist{
				ID:         string(p.ID),
				Name:       p.Name,
				OwnerID:    p.Owner.ID,
				TrackCount: int(p.Tracks.Total),
				Public:     p.IsPublic,
			})
		}

		if err := c.NextPage(ctx, page); errors.Is(err, spotify.ErrNoMorePages) {
			break
		} else if err != nil {
			return nil, mapError("get playlists", err)
		}
	}

	return playlists, nil
}

// PlaylistTrackIDs retrieves the IDs of every track in the playlist.
//
// Local files, episodes and unavailable tracks have no track ID and are skipped.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := c.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(spotifyPageSize))
	if err != nil {
		return nil, mapError("get playlist items", err)
	}

	var ids []string
	for {
		for _, item := range page.Items {
			if item.IsLocal || item.Track.Track == nil || item.Track.Track.ID == "" {
				continue
			}
			ids = append(ids, string(item.Track.Track.ID))
		}

		if err := c.NextPage(ctx, page); errors.Is(err, spotify.ErrNoMorePages) {
			break
		} else if err != nil {
			return nil, mapError("get playlist items", err)
		}
	}

	return ids, nil
}

// CreatePlaylist creates a non-collaborative playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	p, err := c.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, mapError("create playlist", err)
	}

	return &models.Playlist{
		ID:      string(p.ID),
		Name:    p.Name,
		OwnerID: p.Owner.ID,
		Public:  p.IsPublic,
	}, nil
}

// AddTracks appends ids to the playlist in chunks of at most 100.
//
// On failure the returned count is the number of tracks added by earlier chunks.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	c, err := s.api()
	if err != nil {
		return 0, err
	}

	added := 0
	for start := 0; start < len(ids); start += spotifyAddLimit {
		end := min(start+spotifyAddLimit, len(ids))

		chunk := make([]spotify.ID, 0, end-start)
		for _, id := range ids[start:end] {
			chunk = append(chunk, spotify.ID(id))
		}

		if _, err := c.AddTracksToPlaylist(ctx, spotify.ID(playlistID), chunk...); err != nil {
			return added, mapError("add tracks", err)
		}
		added += len(chunk)
	}

	return added, nil
}

// SetPlaylistCover uploads jpeg as the playlist image. The client base64-encodes the body.
func (s *SpotifyService) SetPlaylistCover(ctx context.Context, playlistID string, jpeg []byte) error {
	if len(jpeg) == 0 {
		return fmt.Errorf("%w: empty cover image", shared.ErrInvalidArgument)
	}

	c, err := s.api()
	if err != nil {
		return err
	}

	if err := c.SetPlaylistImage(ctx, spotify.ID(playlistID), bytes.NewReader(jpeg)); err != nil {
		return mapError("set playlist cover", err)
	}
	return nil
}

// mapError converts client and token errors into shared sentinels. Context errors pass through.
func mapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: token refresh failed: %v", shared.ErrTokenExpired, op, err)
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %s", shared.ErrTokenExpired, op, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %s", shared.ErrNotFound, op, apiErr.Message)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %s: %s", shared.ErrServiceUnavailable, op, apiErr.Message)
		}
		return fmt.Errorf("%w: %s: status %d: %s", shared.ErrAPIRequest, op, apiErr.Status, apiErr.Message)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

func withTrailingSlash(url string) string {
	if url == "" || url[len(url)-1] == '/' {
		return url
	}
	return url + "/"
}

// notifyingTokenSource reports each token whose access token differs from the last one seen.
type notifyingTokenSource struct {
	mu     sync.Mutex
	src    oauth2.TokenSource
	last   string
	notify func(*oauth2.Token)
}

func (n *notifyingTokenSource) Token() (*oauth2.Token, error) {
	token, err := n.src.Token()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	changed := token.AccessToken != n.last
	n.last = token.AccessToken
	n.mu.Unlock()

	if changed && n.notify != nil {
		n.notify(token)
	}
	return token, nil
}

// pacer is an [http.RoundTripper] that waits on a token bucket before each request.
//
// It spreads bursts out and never looks at response status codes.
type pacer struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func newPacer(base http.RoundTripper, rps float64) *pacer {
	burst := max(1, int(rps))
	return &pacer{base: base, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (p *pacer) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := p.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return p.base.RoundTrip(req)
}
