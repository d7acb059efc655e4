package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/discog/internal/shared"
)

// Setup creates the config file when missing and migrates the run journal.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Created %s. Add your Spotify client_id and client_secret, then run 'discog auth'.\n", configPath)
	}

	config := r.cfg()
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenJournal(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		r.logger.Info("rolled back latest migration")
	}

	version, applied, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if !applied {
		return r.writePlain("✓ Database %s has no migrations applied\n", config.Database.Path)
	}
	return r.writePlain("✓ Database %s is at schema version %d\n", config.Database.Path, version)
}
