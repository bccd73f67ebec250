package models

import (
	"time"

	"finresolve/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SpendingSource identifies where a spending entry came from
type SpendingSource string

const (
	SpendingSourceManual    SpendingSource = "manual"
	SpendingSourceUpload    SpendingSource = "upload"
	SpendingSourceEstimated SpendingSource = "estimated"
)

// EntryType represents the direction of a spending entry
type EntryType string

const (
	EntryTypeExpense  EntryType = "expense"
	EntryTypeIncome   EntryType = "income"
	EntryTypeTransfer EntryType = "transfer"
)

// SpendingEntry is one transaction record. Entries are immutable once
// created: the engine only appends them or bulk-merges uploads, never
// updates them in place.
type SpendingEntry struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID    string          `gorm:"type:uuid;index" json:"-"`
	Category     Category        `gorm:"not null" json:"category"`
	Amount       decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Confidence   Confidence      `gorm:"not null" json:"confidence"`
	Source       SpendingSource  `gorm:"not null" json:"source"`
	Description  string          `json:"description,omitempty"`
	Date         *time.Time      `json:"date,omitempty"`
	MerchantName string          `json:"merchant_name,omitempty"`
	Type         EntryType       `json:"type,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for entries created without an id
func (e *SpendingEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	return nil
}

// SpendingSummary is a per-category running total. At most one summary
// exists per category within a profile; additions accumulate in place.
type SpendingSummary struct {
	ID               string          `gorm:"type:uuid;primaryKey" json:"-"`
	ProfileID        string          `gorm:"type:uuid;index" json:"-"`
	Category         Category        `gorm:"not null" json:"category"`
	Total            decimal.Decimal `gorm:"type:numeric;not null" json:"total"`
	Confidence       Confidence      `gorm:"not null" json:"confidence"`
	TransactionCount int             `gorm:"not null" json:"transaction_count"`
}

// BeforeCreate hook generates a UUIDv7 for new summary rows
func (s *SpendingSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}
