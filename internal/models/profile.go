package models

import (
	"time"

	"finresolve/internal/uuid"

	"github.com/shopspring/decimal"
)

// IncomeFrequency represents how often income arrives
type IncomeFrequency string

const (
	IncomeFrequencyMonthly IncomeFrequency = "monthly"
	IncomeFrequencyWeekly  IncomeFrequency = "weekly"
	IncomeFrequencyYearly  IncomeFrequency = "yearly"
)

// IncomeData describes a user's declared or inferred income.
type IncomeData struct {
	Amount     decimal.Decimal `gorm:"type:numeric" json:"amount"`
	Frequency  IncomeFrequency `json:"frequency"`
	Confidence Confidence      `json:"confidence"`
	IsEstimate bool            `json:"is_estimate"`
	Source     string          `json:"source,omitempty"`
}

// Profile is the root aggregate of a user's financial state. The sync
// engine holds exactly one in memory per identity; the same type maps to
// the profiles table, with income flattened into income_* columns and the
// collections stored in their own tables.
type Profile struct {
	ID                     string            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                 string            `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`
	Name                   string            `json:"name,omitempty"`
	Income                 *IncomeData       `gorm:"embedded;embeddedPrefix:income_" json:"income,omitempty"`
	MonthlySpending        []SpendingEntry   `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"monthly_spending"`
	SpendingSummary        []SpendingSummary `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"spending_summary"`
	Goals                  []SavingsGoal     `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"goals"`
	HasCompletedOnboarding bool              `json:"has_completed_onboarding"`
	DataCompleteness       int               `json:"data_completeness"`
	LastUpdated            time.Time         `json:"last_updated"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// NewEmptyProfile creates a fresh profile with a locally generated id. The
// id is provisional: the remote store's row id wins if one already exists
// for the same identity.
func NewEmptyProfile() Profile {
	return Profile{
		ID:              uuid.New(),
		MonthlySpending: []SpendingEntry{},
		SpendingSummary: []SpendingSummary{},
		Goals:           []SavingsGoal{},
		LastUpdated:     time.Now(),
	}
}

// Clone returns a deep copy of the profile. Mutation operations hand
// clones to the persistence path so an in-flight save never observes a
// later mutation.
func (p Profile) Clone() Profile {
	out := p
	out.MonthlySpending = make([]SpendingEntry, len(p.MonthlySpending))
	copy(out.MonthlySpending, p.MonthlySpending)
	out.SpendingSummary = make([]SpendingSummary, len(p.SpendingSummary))
	copy(out.SpendingSummary, p.SpendingSummary)
	out.Goals = make([]SavingsGoal, len(p.Goals))
	copy(out.Goals, p.Goals)
	if p.Income != nil {
		income := *p.Income
		out.Income = &income
	}
	return out
}
