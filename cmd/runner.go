package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/discog/internal/cover"
	"github.com/desertthunder/discog/internal/services"
	"github.com/desertthunder/discog/internal/shared"
	"github.com/desertthunder/discog/internal/tasks"
)

// envFile is loaded by [shared.ApplyEnv] when present.
const envFile = ".env"

// authorizeFunc obtains a new token from the user.
type authorizeFunc func(ctx context.Context, srv services.OAuthService, prefix string) (*oauth2.Token, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.Service
	images     tasks.ImageSource
	logger     *log.Logger
	output     io.Writer
	terminal   func() bool
	authorize  authorizeFunc

	// guards config writes from the token refresh callback
	mu sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Zero values are filled in: Config is loaded from --config in [Runner.Before], Spotify is built from the config on
// first use and Images downloads over HTTP.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Service
	Images     tasks.ImageSource
	Logger     *log.Logger
	Output     io.Writer
	Terminal   func() bool
	Authorize  authorizeFunc
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Terminal == nil {
		opts.Terminal = stdoutIsTerminal
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		images:     opts.Images,
		logger:     opts.Logger,
		output:     opts.Output,
		terminal:   opts.Terminal,
		authorize:  opts.Authorize,
	}
	if r.authorize == nil {
		r.authorize = r.doOAuth
	}
	return r
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Before loads the configuration and applies the global flags.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := shared.ParseLogLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)

	if r.config != nil {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	config, err := shared.LoadConfigOrDefault(r.configPath)
	if err != nil {
		return ctx, err
	}
	if err := shared.ApplyEnv(config, envFile); err != nil {
		return ctx, err
	}

	r.config = config
	r.logger.Debug("configuration loaded", "path", r.configPath)
	return ctx, nil
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the progress display owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// service returns the authenticated Spotify service, building it and running the OAuth flow on first use.
func (r *Runner) service(ctx context.Context) (services.Service, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	config := r.cfg()
	if !config.Credentials.Spotify.HasCredentials() {
		return nil, fmt.Errorf("%w: set client_id and client_secret in %s or %s/%s", shared.ErrMissingCredentials,
			r.configPath, shared.EnvClientID, shared.EnvClientSecret)
	}

	srv, err := services.NewSpotifyService(
		config.Credentials.Spotify.Map(),
		services.WithRateLimit(config.Sync.RequestsPerSecond),
		services.WithTokenNotify(r.saveToken),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token := config.Credentials.Spotify.Token()
	if token == nil {
		r.writePlain("No saved Spotify token. Starting authorization...\n")
		if token, err = r.authorize(ctx, srv, "authorization"); err != nil {
			return nil, err
		}
		r.saveToken(token)
	}

	if err := srv.OAuthenticate(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	r.spotify = srv
	return srv, nil
}

// saveToken stores token in memory and in the config file. Failures are logged.
func (r *Runner) saveToken(token *oauth2.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	config := r.cfg()
	if err := config.Credentials.Spotify.Update(token); err != nil {
		r.logger.Warn("failed to update token", "err", err)
		return
	}
	if r.configPath == "" {
		return
	}
	if err := shared.SaveToken(r.configPath, token); err != nil {
		r.logger.Warn("failed to save token", "path", r.configPath, "err", err)
		return
	}
	r.logger.Debug("token saved", "path", r.configPath)
}

func (r *Runner) imageSource() tasks.ImageSource {
	if r.images == nil {
		r.images = cover.NewDownloader(r.cfg().Sync.ImageTimeout.Duration)
	}
	return r.images
}

// openJournal opens the run journal, or returns nil when the database path is empty.
func (r *Runner) openJournal() (*sql.DB, error) {
	cfg := r.cfg().Database
	if cfg.Path == "" {
		return nil, nil
	}
	return shared.OpenJournal(cfg)
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	return r.writeBytes([]byte(fmt.Sprintf(format, args...)))
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writeBytes([]byte("\n" + fmt.Sprintf(format, args...) + "\n"))
}
