package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/server"
	"github.com/desertthunder/discog/internal/services"
	"github.com/desertthunder/discog/internal/shared"
)

const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 flow for Spotify and saves the tokens to the config file.
//
// Starts a local HTTP server, opens the browser for user authorization and exchanges the code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	config := r.cfg()
	if !config.Credentials.Spotify.HasCredentials() {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	srv, err := services.NewSpotifyService(
		config.Credentials.Spotify.Map(),
		services.WithRateLimit(config.Sync.RequestsPerSecond),
		services.WithTokenNotify(r.saveToken),
	)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.authorize(ctx, srv, "authorization")
	if err != nil {
		return err
	}
	r.saveToken(token)

	if err := srv.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	r.spotify = srv

	user, err := srv.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify token: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Logged in as %s\n", displayName(user))
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: discog sync \"<artist>\"\n")
	return nil
}

// reauthorize runs the OAuth flow again and re-authenticates the current service with the new token.
func (r *Runner) reauthorize(ctx context.Context) error {
	srv, ok := r.spotify.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: service does not support reauthorization", shared.ErrTokenExpired)
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")

	token, err := r.authorize(ctx, srv, "reauthorization")
	if err != nil {
		return fmt.Errorf("reauthorization failed: %w", err)
	}
	r.saveToken(token)

	if err := srv.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlain("✓ Successfully reauthenticated. Resuming...\n\n")
	return nil
}

// currentUser fetches the user, reauthorizing once when the token has expired.
func (r *Runner) currentUser(ctx context.Context, srv services.Service) (*models.User, error) {
	user, err := srv.CurrentUser(ctx)
	if errors.Is(err, shared.ErrTokenExpired) {
		if err := r.reauthorize(ctx); err != nil {
			return nil, err
		}
		user, err = srv.CurrentUser(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return user, nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	config := r.cfg()
	oauthConfig := oauthSrv.GetOAuthConfig()
	authURL := oauthSrv.GetAuthURL(state)

	handler := server.NewOAuthHandler(oauthConfig, state).WithPath(callbackPath(oauthConfig.RedirectURL))
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := server.NewCallbackServer(addr, router)
	if err := httpServer.Start(); err != nil {
		return nil, err
	}
	r.logger.Info("started OAuth callback server", "purpose", prefix, "addr", httpServer.Addr())

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "err", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	token, err := handler.Wait(waitCtx, httpServer)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	return token, nil
}

// callbackPath is the path of the redirect URI, which the callback server must serve.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}

func displayName(user *models.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.ID
}
