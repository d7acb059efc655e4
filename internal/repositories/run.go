package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/shared"
)

const runColumns = `id, batch_id, artist, artist_id, playlist_id, playlist_name, created_playlist, added, cover_set,
	status, error, created_at, updated_at, finished_at`

// RunRepository implements models.Repository[*models.Run] for the sync journal.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with a generated ID
func (r *RunRepository) Create(run *models.Run) error {
	run.SetID(shared.GenerateID())

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		run.ID(),
		run.BatchID,
		run.Artist,
		run.ArtistID,
		run.PlaylistID,
		run.PlaylistName,
		run.CreatedPlaylist,
		run.Added,
		run.CoverSet,
		run.Status,
		run.Error,
		run.CreatedAt(),
		run.UpdatedAt(),
		nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}
	return run, err
}

// Update stores the outcome fields of run and bumps its updated_at
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE runs
		SET artist_id = ?, playlist_id = ?, playlist_name = ?, created_playlist = ?, added = ?, cover_set = ?,
			status = ?, error = ?, updated_at = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.ArtistID,
		run.PlaylistID,
		run.PlaylistName,
		run.CreatedPlaylist,
		run.Added,
		run.CoverSet,
		run.Status,
		run.Error,
		now,
		nullTime(run.FinishedAt),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	if err := expectRow(result, run.ID()); err != nil {
		return err
	}

	run.SetUpdatedAt(now)
	return nil
}

// Delete removes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return expectRow(result, id)
}

// Prune deletes runs created before cutoff and returns how many were removed.
func (r *RunRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

// List retrieves runs newest first.
//
// Supported criteria are "artist", "status" and "batch_id" (strings) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1 = 1`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ? COLLATE NOCASE"
		args = append(args, artist)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if batchID, ok := criteria["batch_id"].(string); ok && batchID != "" {
		query += " AND batch_id = ?"
		args = append(args, batchID)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// LatestBatch returns the batch ID of the most recent run, or "" for an empty journal.
func (r *RunRepository) LatestBatch() (string, error) {
	var batchID string
	err := r.db.QueryRow(`SELECT batch_id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest batch: %w", err)
	}
	return batchID, nil
}

// scanRun scans a single row from either [sql.Row] or [sql.Rows] into a [models.Run]
func scanRun(row scanner) (*models.Run, error) {
	var (
		run        models.Run
		id         string
		status     string
		createdAt  time.Time
		updatedAt  time.Time
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&id, &run.BatchID, &run.Artist, &run.ArtistID, &run.PlaylistID, &run.PlaylistName,
		&run.CreatedPlaylist, &run.Added, &run.CoverSet, &status, &run.Error,
		&createdAt, &updatedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.SetID(id)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	run.Status = models.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}

	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
