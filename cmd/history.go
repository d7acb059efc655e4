package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/discog/internal/formatter"
	"github.com/desertthunder/discog/internal/repositories"
	"github.com/desertthunder/discog/internal/shared"
)

// History prints recorded sync runs, or prunes old ones when --prune is given.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openJournal()
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}
	if db == nil {
		return fmt.Errorf("%w: database.path is empty, the run journal is disabled", shared.ErrMissingConfig)
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)

	if age := cmd.Duration("prune"); age > 0 {
		cutoff := time.Now().Add(-age)
		n, err := repo.Prune(cutoff)
		if err != nil {
			return err
		}
		r.logger.Info("pruned runs", "cutoff", cutoff, "count", n)
		return r.writePlain("Deleted %d runs older than %s.\n", n, age)
	}

	criteria := map[string]any{
		"artist": cmd.String("artist"),
		"status": cmd.String("status"),
		"limit":  cmd.Int("limit"),
	}

	if cmd.Bool("last") {
		batchID, err := repo.LatestBatch()
		if err != nil {
			return err
		}
		if batchID == "" {
			return r.writePlain("No runs recorded.\n")
		}
		criteria["batch_id"] = batchID
	}

	runs, err := repo.List(criteria)
	if err != nil {
		return err
	}

	out, err := formatter.FormatRuns(runs, cmd.String("format"))
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}
