package models

import "github.com/shopspring/decimal"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget is a per-category spending limit. Budgets belong to the user, not
// the profile aggregate: the dashboard reads them next to the profile but
// the sync engine never touches them.
type Budget struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Category    Category        `gorm:"not null" json:"category"`
	LimitAmount decimal.Decimal `gorm:"type:numeric;not null" json:"limit"`
	Period      BudgetPeriod    `gorm:"not null" json:"period"`
}
