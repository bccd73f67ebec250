package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finresolve/internal/models"
)

// gormStore implements ProfileStore on a relational database via GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a ProfileStore backed by the given database handle.
func NewGormStore(db *gorm.DB) ProfileStore {
	return &gormStore{db: db}
}

func (s *gormStore) FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (s *gormStore) ListSpendingEntries(ctx context.Context, profileID string) ([]models.SpendingEntry, error) {
	var entries []models.SpendingEntry
	if err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("created_at").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *gormStore) ListSpendingSummaries(ctx context.Context, profileID string) ([]models.SpendingSummary, error) {
	var summaries []models.SpendingSummary
	if err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *gormStore) ListGoals(ctx context.Context, profileID string) ([]models.SavingsGoal, error) {
	var goals []models.SavingsGoal
	if err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("created_at").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (s *gormStore) UpsertProfile(ctx context.Context, profile models.Profile) error {
	return s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&profile).Error
}

func (s *gormStore) DeleteProfile(ctx context.Context, profileID string) error {
	// SQLite test databases don't enforce the migration-level cascades,
	// so dependents are deleted explicitly inside one transaction.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&models.SpendingEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("profile_id = ?", profileID).Delete(&models.SpendingSummary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("profile_id = ?", profileID).Delete(&models.SavingsGoal{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", profileID).Delete(&models.Profile{}).Error
	})
}

func (s *gormStore) ReplaceSpendingSummaries(ctx context.Context, profileID string, summaries []models.SpendingSummary) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&models.SpendingSummary{}).Error; err != nil {
			return err
		}
		if len(summaries) == 0 {
			return nil
		}
		rows := make([]models.SpendingSummary, len(summaries))
		copy(rows, summaries)
		for i := range rows {
			rows[i].ID = ""
			rows[i].ProfileID = profileID
		}
		return tx.Create(&rows).Error
	})
}

func (s *gormStore) DeleteGoals(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.SavingsGoal{}).Error
}

func (s *gormStore) UpsertGoals(ctx context.Context, profileID string, goals []models.SavingsGoal) error {
	if len(goals) == 0 {
		return nil
	}
	rows := make([]models.SavingsGoal, len(goals))
	copy(rows, goals)
	for i := range rows {
		rows[i].ProfileID = profileID
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}

func (s *gormStore) InsertSpendingEntries(ctx context.Context, profileID string, entries []models.SpendingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.SpendingEntry, len(entries))
	copy(rows, entries)
	for i := range rows {
		rows[i].ProfileID = profileID
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
