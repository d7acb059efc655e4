package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/repositories"
	"github.com/desertthunder/discog/internal/shared"
	"github.com/desertthunder/discog/internal/tasks"
	"github.com/desertthunder/discog/internal/ui"
)

// Sync creates or updates the discography playlist of every artist named on the command line, or of every existing
// discography playlist when none are named.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	plain := cmd.Bool("plain") || !r.terminal()

	if !plain {
		logger := log.New(io.Discard)
		if path := r.cfg().Log.File; path != "" {
			fileLogger, err := shared.NewFileLogger(path)
			if err != nil {
				return fmt.Errorf("failed to create file logger: %w", err)
			}
			logger = fileLogger
		}
		logger.SetLevel(r.logger.GetLevel())
		r.SetLogger(logger)
	}

	srv, err := r.service(ctx)
	if err != nil {
		return err
	}

	user, err := r.currentUser(ctx, srv)
	if err != nil {
		return err
	}
	r.logger.Info("authenticated", "user", user.ID)

	config := r.cfg().Sync
	engine := tasks.NewDiscographyEngine(srv, r.imageSource(), r.logger, tasks.Options{
		Public:    config.Public && !cmd.Bool("private"),
		SkipCover: cmd.Bool("skip-cover"),
		CoverSize: config.CoverSize,
	})

	names := artistNames(cmd.Args().Slice())
	if len(names) == 0 {
		r.writePlain("No artist names provided. Attempting to update all existing discography playlists.\n")
		if names, err = engine.DiscoverArtists(ctx, user.ID); err != nil {
			return err
		}
		if len(names) == 0 {
			r.writePlain("No discography playlists found to update. Exiting.\n")
			return nil
		}
	}

	if config.Shuffle && !cmd.Bool("no-shuffle") {
		rand.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	}

	r.writePlain("Found %d artists to process.\n", len(names))

	if !cmd.Bool("no-journal") {
		batchID := shared.GenerateID()
		db, err := r.openJournal()
		switch {
		case err != nil:
			r.logger.Warn("run journal unavailable", "err", err)
		case db != nil:
			defer db.Close()
			engine.SetJournal(repositories.NewRunRepository(db), batchID)
			r.logger.Debug("journaling runs", "batch", batchID)
		}
	}

	result := &tasks.SyncResult{Names: names}
	reauthorized := false
	for {
		result, err = r.runSync(ctx, engine, user, result, plain)
		if errors.Is(err, shared.ErrTokenExpired) && !reauthorized {
			reauthorized = true
			if err := r.reauthorize(ctx); err != nil {
				return err
			}
			continue
		}
		break
	}
	if err != nil {
		return err
	}

	r.writePlain("Done: %d tracks added across %d artists (%d not found, %d failed).\n",
		result.Added, len(result.Results), result.NotFound, result.Failed)
	return result.Err()
}

// runSync resumes result with the plain printer or the progress display attached to the update channel.
func (r *Runner) runSync(ctx context.Context, engine *tasks.DiscographyEngine, user *models.User, result *tasks.SyncResult, plain bool) (*tasks.SyncResult, error) {
	remaining := len(result.Names) - result.Next
	updates := make(chan tasks.ProgressUpdate, tasks.ProgressBuffer(remaining))

	if plain {
		printed := make(chan struct{})
		go func() {
			ui.PrintPlain(r.output, updates)
			close(printed)
		}()

		res, err := engine.Resume(ctx, user, result, updates)
		close(updates)
		<-printed
		return res, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		res *tasks.SyncResult
		err error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		res, err = engine.Resume(runCtx, user, result, updates)
		close(updates)
	}()

	model := ui.NewProgressModel(len(result.Names), result.Next, updates, cancel)
	if uiErr := ui.Run(model); uiErr != nil {
		r.logger.Error("progress display failed", "err", uiErr)
		cancel()
	}
	<-finished

	return res, err
}

// artistNames trims names and drops empty ones.
func artistNames(args []string) []string {
	var names []string
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	return names
}
