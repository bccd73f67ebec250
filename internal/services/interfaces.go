package services

import (
	"github.com/shopspring/decimal"

	"finresolve/internal/models"
	"finresolve/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// BudgetProgress contains spending vs limit data for a budget's current period.
type BudgetProgress struct {
	BudgetID   string          `json:"budget_id"`
	Category   models.Category `json:"category"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
// Budgets are a sibling concern of the profile: they read the profile's
// spending entries but are never part of the sync engine's state.
type BudgetServicer interface {
	CreateBudget(userID string, category models.Category, limit decimal.Decimal, period models.BudgetPeriod) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, limit *decimal.Decimal, period *models.BudgetPeriod) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID, profileID string) (*BudgetProgress, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
