// Package services defines the [Service] interface for the remote music catalogue and implements it for Spotify.
//
// # Service Interface
//
// [Service] exposes only what the discography sync needs: artist search, album and track listing,
// playlist listing, creation, appending and cover upload. Listing methods follow every page.
//
// # Spotify Implementation
//
// [SpotifyService] wraps github.com/zmb3/spotify/v2 and uses OAuth2 for authentication with automatic token refresh.
//
// The [oauth2.Client] automatically refreshes expired tokens using the refresh token. Refreshed tokens are handed
// to the callback registered with [WithTokenNotify] so the CLI can persist them.
//
// [WithRateLimit] installs a token-bucket pacer in front of the transport. It spaces requests out;
// it does not retry.
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends Service for OAuth providers
//
// [SpotifyService] implements this for the local callback flow used by the CLI.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : HTTP 401 or refresh failure, reauthorization needed
//   - [shared.ErrNotFound] : HTTP 404
//   - [shared.ErrServiceUnavailable] : HTTP 502, 503 or 504
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrArtistNotFound] : artist search returned nothing
package services
