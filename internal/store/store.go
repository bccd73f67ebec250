// Package store persists financial profiles and their dependent rows.
// The sync engine talks to the ProfileStore interface only; the GORM
// implementation backs it with Postgres in production and SQLite in tests.
package store

import (
	"context"

	"finresolve/internal/models"
)

// ProfileStore is the remote persistence surface the sync engine
// reconciles against. Implementations must treat a missing profile as a
// nil result, not an error, so callers can distinguish "no row yet" from
// a failed query.
type ProfileStore interface {
	// FindProfileByUserID returns the profile row for the identity, or
	// nil when none exists. Dependent collections are not loaded.
	FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)

	ListSpendingEntries(ctx context.Context, profileID string) ([]models.SpendingEntry, error)
	ListSpendingSummaries(ctx context.Context, profileID string) ([]models.SpendingSummary, error)
	ListGoals(ctx context.Context, profileID string) ([]models.SavingsGoal, error)

	// UpsertProfile writes the scalar profile fields keyed by profile id.
	// Collections are persisted through their own operations.
	UpsertProfile(ctx context.Context, profile models.Profile) error

	// DeleteProfile removes the profile row and, by cascade, its
	// dependent entries, summaries and goals.
	DeleteProfile(ctx context.Context, profileID string) error

	// ReplaceSpendingSummaries swaps the stored summary set for the
	// given profile: delete-all then insert, not a diff.
	ReplaceSpendingSummaries(ctx context.Context, profileID string, summaries []models.SpendingSummary) error

	DeleteGoals(ctx context.Context, ids []string) error
	UpsertGoals(ctx context.Context, profileID string, goals []models.SavingsGoal) error

	// InsertSpendingEntries appends entries for the profile. Entries are
	// append-only remotely and never reconciled.
	InsertSpendingEntries(ctx context.Context, profileID string, entries []models.SpendingEntry) error
}
