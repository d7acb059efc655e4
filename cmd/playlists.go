package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/discog/internal/formatter"
	"github.com/desertthunder/discog/internal/tasks"
)

// Playlists lists the discography playlists owned by the current user.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.service(ctx)
	if err != nil {
		return err
	}

	user, err := r.currentUser(ctx, srv)
	if err != nil {
		return err
	}

	engine := tasks.NewDiscographyEngine(srv, nil, r.logger, tasks.Options{})
	playlists, err := engine.DiscographyPlaylists(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}
	r.logger.Debug("found discography playlists", "count", len(playlists))

	if cmd.Bool("json") {
		out, err := formatter.PlaylistsToJSON(playlists)
		if err != nil {
			return err
		}
		return r.writeBytes(out)
	}
	return r.writeBytes(formatter.PlaylistsToText(playlists))
}
