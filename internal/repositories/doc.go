// Package repositories implements SQLite persistence for the sync journal.
//
// Key Implementations:
//   - [RunRepository] : one row per artist processed by a sync, grouped by batch
//
// Runs are hard deleted; [RunRepository.Prune] trims the journal by age.
package repositories
