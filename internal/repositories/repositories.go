package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/discog/internal/shared"
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// expectRow fails with [shared.ErrNotFound] when result touched no rows.
func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}
	return nil
}
