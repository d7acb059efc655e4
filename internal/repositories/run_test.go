package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenJournal(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func newRunAt(batchID, artist string, at time.Time) *models.Run {
	run := models.NewRun(batchID, artist)
	run.SetCreatedAt(at)
	run.SetUpdatedAt(at)
	return run
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun("batch", "Slowdive")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun("batch", "Slowdive")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if got.Artist != "Slowdive" || got.BatchID != "batch" || got.PlaylistName != "Slowdive Discography" {
			t.Errorf("unexpected run %+v", got)
		}
		if got.Status != models.RunRunning {
			t.Errorf("expected status running, got %s", got.Status)
		}
		if got.FinishedAt != nil {
			t.Error("running run should not have finished_at")
		}
		if !got.CreatedAt().Equal(run.CreatedAt()) {
			t.Errorf("expected created_at %v, got %v", run.CreatedAt(), got.CreatedAt())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun("batch", "Low")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.ArtistID = "low-id"
		run.PlaylistID = "pl"
		run.CreatedPlaylist = true
		run.Added = 42
		run.CoverSet = true
		run.Finish(models.RunOK, nil)

		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Added != 42 || !got.CreatedPlaylist || !got.CoverSet || got.PlaylistID != "pl" || got.ArtistID != "low-id" {
			t.Errorf("update not persisted: %+v", got)
		}
		if got.Status != models.RunOK || got.FinishedAt == nil {
			t.Errorf("expected finished ok run, got %s (%v)", got.Status, got.FinishedAt)
		}
	})

	t.Run("UpdateFailure", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun("batch", "Low")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Finish(models.RunFailed, errors.New("boom"))
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, _ := repo.Get(run.ID())
		if got.Error != "boom" || got.Status != models.RunFailed {
			t.Errorf("expected failed run with error, got %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun("batch", "Low")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get(run.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestRunRepositoryErrors(t *testing.T) {
	t.Run("CreateValidation", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun("", "Low")

		if err := repo.Create(run); err == nil {
			t.Fatal("expected validation error for empty batch id")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun("batch", "Low")
		run.SetID("nonexistent-id")

		if err := repo.Update(run); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateValidation", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun("batch", "Low")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Added = -1
		if err := repo.Update(run); err == nil {
			t.Fatal("expected validation error for negative count")
		}
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRunRepository(db)
		db.Close()

		if err := repo.Create(models.NewRun("batch", "Low")); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.LatestBatch(); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestRunRepositoryList(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []struct {
		batch  string
		artist string
		status models.RunStatus
	}{
		{"b1", "Slowdive", models.RunOK},
		{"b1", "Nobody", models.RunNotFound},
		{"b2", "Slowdive", models.RunOK},
		{"b2", "Low", models.RunFailed},
	}
	for i, s := range seed {
		run := newRunAt(s.batch, s.artist, base.Add(time.Duration(i)*time.Hour))
		run.Status = s.status
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to seed run: %v", err)
		}
	}

	tests := []struct {
		name     string
		criteria map[string]any
		want     []string
	}{
		{name: "all newest first", criteria: nil, want: []string{"Low", "Slowdive", "Nobody", "Slowdive"}},
		{name: "artist ignores case", criteria: map[string]any{"artist": "slowdive"}, want: []string{"Slowdive", "Slowdive"}},
		{name: "status", criteria: map[string]any{"status": "failed"}, want: []string{"Low"}},
		{name: "batch", criteria: map[string]any{"batch_id": "b1"}, want: []string{"Nobody", "Slowdive"}},
		{name: "limit", criteria: map[string]any{"limit": 2}, want: []string{"Low", "Slowdive"}},
		{name: "no match", criteria: map[string]any{"artist": "Cocteau Twins"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := repo.List(tt.criteria)
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}

			var got []string
			for _, r := range runs {
				got = append(got, r.Artist)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
					break
				}
			}
		})
	}

	t.Run("LatestBatch", func(t *testing.T) {
		batch, err := repo.LatestBatch()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if batch != "b2" {
			t.Errorf("expected b2, got %q", batch)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		n, err := repo.Prune(base.Add(90 * time.Minute))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 pruned runs, got %d", n)
		}

		runs, _ := repo.List(nil)
		if len(runs) != 2 {
			t.Errorf("expected 2 remaining runs, got %d", len(runs))
		}
	})
}

func TestRunRepositoryLatestBatchEmpty(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	batch, err := repo.LatestBatch()
	if err != nil || batch != "" {
		t.Errorf("expected empty batch, got %q, %v", batch, err)
	}
}
