package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finresolve/internal/errors"
	"finresolve/internal/models"
	"finresolve/internal/sync"
	"finresolve/internal/uuid"
)

// GoalHandler handles savings goal requests.
type GoalHandler struct {
	registry *sync.Registry
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(registry *sync.Registry) *GoalHandler {
	return &GoalHandler{registry: registry}
}

// CreateGoalRequest represents the request payload for creating a goal.
type CreateGoalRequest struct {
	Name     string              `json:"name" binding:"required,min=1,max=100"`
	Target   decimal.Decimal     `json:"target" binding:"required"`
	Current  decimal.Decimal     `json:"current"`
	Deadline *time.Time          `json:"deadline"`
	Priority models.GoalPriority `json:"priority" binding:"required,goal_priority"`
}

// UpdateGoalRequest represents the request payload for a partial goal
// update. Absent fields are left unchanged.
type UpdateGoalRequest struct {
	Name     *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Target   *decimal.Decimal     `json:"target"`
	Current  *decimal.Decimal     `json:"current"`
	Deadline *time.Time           `json:"deadline"`
	Priority *models.GoalPriority `json:"priority" binding:"omitempty,goal_priority"`
}

// CreateGoal adds a savings goal.
// @Summary     Create a goal
// @Description Add a savings goal to the profile
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal details"
// @Success     201 {object} models.SavingsGoal "Goal created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	goal := models.SavingsGoal{
		ID:       uuid.New(),
		Name:     req.Name,
		Target:   req.Target,
		Current:  req.Current,
		Deadline: req.Deadline,
		Priority: req.Priority,
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.AddGoal(goal)

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// UpdateGoal applies a partial update to a goal.
// @Summary     Update a goal
// @Description Apply a partial update to a savings goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Goal ID"
// @Param       request body UpdateGoalRequest true "Fields to update"
// @Success     200 {object} models.SavingsGoal "Updated goal"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [patch]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.UpdateGoal(goalID, models.GoalUpdate{
		Name:     req.Name,
		Target:   req.Target,
		Current:  req.Current,
		Deadline: req.Deadline,
		Priority: req.Priority,
	})

	for _, goal := range engine.Profile().Goals {
		if goal.ID == goalID {
			c.JSON(http.StatusOK, gin.H{"goal": goal})
			return
		}
	}
	respondWithError(c, apperrors.ErrGoalNotFound)
}

// DeleteGoal removes a goal. Deleting an unknown id succeeds, matching
// the engine's idempotent delete semantics.
// @Summary     Delete a goal
// @Description Remove a savings goal from the profile
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     204 "Goal deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.DeleteGoal(goalID)

	c.Status(http.StatusNoContent)
}
