package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "finresolve/internal/errors"
	"finresolve/internal/models"
	"finresolve/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new per-category spending limit.
func (s *budgetService) CreateBudget(
	userID string,
	category models.Category,
	limit decimal.Decimal,
	period models.BudgetPeriod,
) (*models.Budget, error) {
	if !models.ValidCategory(category) {
		return nil, apperrors.ErrInvalidCategory
	}

	budget := &models.Budget{
		UserID:      userID,
		Category:    category,
		LimitAmount: limit,
		Period:      period,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with an optional period filter.
func (s *budgetService) GetUserBudgets(
	userID string,
	page pagination.PageRequest,
	period *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's limit or period.
func (s *budgetService) UpdateBudget(
	userID, budgetID string,
	limit *decimal.Decimal,
	period *models.BudgetPeriod,
) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if limit != nil {
		updates["limit_amount"] = *limit
	}
	if period != nil {
		updates["period"] = *period
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress calculates spending vs limit for the budget's current
// period, summing the profile's entries for the budget's category.
func (s *budgetService) GetBudgetProgress(userID, budgetID, profileID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	periodStart, periodEnd := periodBounds(budget.Period, time.Now())

	var entries []models.SpendingEntry
	err = s.db.
		Where("profile_id = ? AND category = ?", profileID, budget.Category).
		Where(s.db.Where("date BETWEEN ? AND ?", periodStart, periodEnd).
			Or("date IS NULL AND created_at BETWEEN ? AND ?", periodStart, periodEnd)).
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Sum in Go so decimal precision survives every backend.
	spent := decimal.Zero
	for _, e := range entries {
		if e.Type == models.EntryTypeIncome || e.Type == models.EntryTypeTransfer {
			continue
		}
		spent = spent.Add(e.Amount.Abs())
	}

	remaining := budget.LimitAmount.Sub(spent)
	var percentage float64
	if budget.LimitAmount.IsPositive() {
		percentage, _ = spent.Div(budget.LimitAmount).Mul(decimal.NewFromInt(100)).Float64()
	}

	return &BudgetProgress{
		BudgetID:   budget.ID,
		Category:   budget.Category,
		Limit:      budget.LimitAmount,
		Spent:      spent,
		Remaining:  remaining,
		Percentage: percentage,
	}, nil
}

// periodBounds returns the inclusive window for the period containing now.
func periodBounds(period models.BudgetPeriod, now time.Time) (time.Time, time.Time) {
	switch period {
	case models.BudgetPeriodWeekly:
		weekday := int(now.Weekday())
		start := time.Date(now.Year(), now.Month(), now.Day()-weekday, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	case models.BudgetPeriodYearly:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return start, time.Date(now.Year(), 12, 31, 23, 59, 59, 999999999, now.Location())
	default: // monthly
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	}
}
