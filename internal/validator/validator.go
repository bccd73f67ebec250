// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"finresolve/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("spending_category", validateSpendingCategory)
		_ = v.RegisterValidation("confidence", validateConfidence)
		_ = v.RegisterValidation("income_frequency", validateIncomeFrequency)
		_ = v.RegisterValidation("spending_source", validateSpendingSource)
		_ = v.RegisterValidation("entry_type", validateEntryType)
		_ = v.RegisterValidation("goal_priority", validateGoalPriority)
		_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
	}
}

func validateSpendingCategory(fl validator.FieldLevel) bool {
	return models.ValidCategory(models.Category(fl.Field().String()))
}

func validateConfidence(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "high", "medium", "low":
		return true
	}
	return false
}

func validateIncomeFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "monthly", "weekly", "yearly":
		return true
	}
	return false
}

func validateSpendingSource(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "manual", "upload", "estimated":
		return true
	}
	return false
}

func validateEntryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "expense", "income", "transfer":
		return true
	}
	return false
}

func validateGoalPriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "high", "medium", "low":
		return true
	}
	return false
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "monthly", "weekly", "yearly":
		return true
	}
	return false
}
