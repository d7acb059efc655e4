// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// app builds the root command. Global flags are visible to every subcommand.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "discog",
		Usage:   "Build and refresh \"<Artist> Discography\" playlists on Spotify",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error, fatal)",
				Value: "warn",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, authCommand, playlistsCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// syncCommand runs the main flow
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Aliases:   []string{"update"},
		Usage:     "Create or update discography playlists for the given artists (all existing ones when none are given)",
		ArgsUsage: "[artist ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print results line by line instead of showing progress bars",
			},
			&cli.BoolFlag{
				Name:  "no-shuffle",
				Usage: "Process artists in the given order",
			},
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Create new playlists as private",
			},
			&cli.BoolFlag{
				Name:  "skip-cover",
				Usage: "Do not replace playlist cover images",
			},
			&cli.BoolFlag{
				Name:  "no-journal",
				Usage: "Do not record runs in the database",
			},
		},
		Action: r.Sync,
	}
}

// authCommand runs the OAuth flow and stores the tokens
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Action: r.Auth,
	}
}

// playlistsCommand lists discography playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your discography playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.Playlists,
	}
}

// historyCommand shows the run journal
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show (0 for all)",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "artist",
				Usage: "Only show runs for this artist",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show runs with this status (ok, not_found, failed, running)",
			},
			&cli.BoolFlag{
				Name:  "last",
				Usage: "Only show the most recent sync",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, csv, markdown, json)",
				Value:   "text",
			},
			&cli.DurationFlag{
				Name:  "prune",
				Usage: "Delete runs older than this duration (e.g. 720h) instead of listing",
			},
		},
		Action: r.History,
	}
}

// setupCommand writes the config and prepares the journal
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file if missing and run database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Revert the most recent migration",
			},
		},
		Action: r.Setup,
	}
}
