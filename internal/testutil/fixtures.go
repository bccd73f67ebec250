package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finresolve/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProfile creates a profile row for the given user.
func CreateTestProfile(t *testing.T, db *gorm.DB, userID string) *models.Profile {
	t.Helper()

	profile := models.NewEmptyProfile()
	profile.UserID = userID
	profile.Name = fmt.Sprintf("Test User %d", nextID())
	profile.LastUpdated = time.Now()
	if err := db.Omit("MonthlySpending", "SpendingSummary", "Goals").Create(&profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return &profile
}

// CreateTestSpendingEntry creates one expense entry for the given profile.
func CreateTestSpendingEntry(t *testing.T, db *gorm.DB, profileID string, category models.Category, amount decimal.Decimal) *models.SpendingEntry {
	t.Helper()

	now := time.Now()
	entry := &models.SpendingEntry{
		ProfileID:   profileID,
		Category:    category,
		Amount:      amount,
		Confidence:  models.ConfidenceHigh,
		Source:      models.SpendingSourceManual,
		Description: fmt.Sprintf("Test entry %d", nextID()),
		Date:        &now,
		Type:        models.EntryTypeExpense,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test spending entry: %v", err)
	}
	return entry
}

// CreateTestGoal creates a savings goal for the given profile.
func CreateTestGoal(t *testing.T, db *gorm.DB, profileID string) *models.SavingsGoal {
	t.Helper()

	goal := &models.SavingsGoal{
		ProfileID: profileID,
		Name:      fmt.Sprintf("Test Goal %d", nextID()),
		Target:    decimal.NewFromInt(10000),
		Current:   decimal.NewFromInt(1000),
		Priority:  models.GoalPriorityMedium,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestBudget creates a monthly budget for the given user.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, category models.Category, limit decimal.Decimal) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:      userID,
		Category:    category,
		LimitAmount: limit,
		Period:      models.BudgetPeriodMonthly,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
