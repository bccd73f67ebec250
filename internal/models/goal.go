package models

import (
	"time"

	"finresolve/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalPriority represents the urgency of a savings goal
type GoalPriority string

const (
	GoalPriorityHigh   GoalPriority = "high"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityLow    GoalPriority = "low"
)

// SavingsGoal is a target the user is saving towards. Goals are the only
// collection the engine reconciles remotely by set difference, so their
// ids must stay stable across edits.
type SavingsGoal struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID string          `gorm:"type:uuid;index" json:"-"`
	Name      string          `gorm:"not null" json:"name"`
	Target    decimal.Decimal `gorm:"type:numeric;not null" json:"target"`
	Current   decimal.Decimal `gorm:"type:numeric;not null" json:"current"`
	Deadline  *time.Time      `json:"deadline,omitempty"`
	Priority  GoalPriority    `gorm:"not null" json:"priority"`
	CreatedAt time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for goals created without an id
func (g *SavingsGoal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New()
	}
	return nil
}

// GoalUpdate holds the partially updatable fields of a goal. Nil fields
// are left unchanged by UpdateGoal.
type GoalUpdate struct {
	Name     *string          `json:"name,omitempty"`
	Target   *decimal.Decimal `json:"target,omitempty"`
	Current  *decimal.Decimal `json:"current,omitempty"`
	Deadline *time.Time       `json:"deadline,omitempty"`
	Priority *GoalPriority    `json:"priority,omitempty"`
}
