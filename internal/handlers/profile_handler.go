package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finresolve/internal/errors"
	"finresolve/internal/models"
	"finresolve/internal/sync"
)

// ProfileHandler exposes the financial profile and its sync metadata.
// Every request resolves the caller's engine through the registry, so
// the first request after login pays the load protocol and later ones
// hit the warm in-memory profile.
type ProfileHandler struct {
	registry *sync.Registry
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(registry *sync.Registry) *ProfileHandler {
	return &ProfileHandler{registry: registry}
}

// UpdateIncomeRequest represents the request payload for replacing income.
type UpdateIncomeRequest struct {
	Amount     decimal.Decimal        `json:"amount" binding:"required"`
	Frequency  models.IncomeFrequency `json:"frequency" binding:"required,income_frequency"`
	Confidence models.Confidence      `json:"confidence" binding:"required,confidence"`
	IsEstimate bool                   `json:"is_estimate"`
	Source     string                 `json:"source" binding:"max=100"`
}

// UpdateNameRequest represents the request payload for setting the display name.
type UpdateNameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// ProfileResponse wraps the profile with its sync read model.
type ProfileResponse struct {
	Profile          models.Profile `json:"profile"`
	DataCompleteness int            `json:"data_completeness"`
	IsLoading        bool           `json:"is_loading"`
	IsSyncing        bool           `json:"is_syncing"`
	SyncStatus       sync.Status    `json:"sync_status"`
}

func (h *ProfileHandler) respondProfile(c *gin.Context, engine *sync.Engine, status int) {
	c.JSON(status, ProfileResponse{
		Profile:          engine.Profile(),
		DataCompleteness: engine.DataCompleteness(),
		IsLoading:        engine.IsLoading(),
		IsSyncing:        engine.IsSyncing(),
		SyncStatus:       engine.SyncStatus(),
	})
}

// GetProfile returns the caller's profile.
// @Summary     Get profile
// @Description Get the authenticated user's financial profile and sync state
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ProfileResponse "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	h.respondProfile(c, engine, http.StatusOK)
}

// UpdateIncome replaces the income record.
// @Summary     Update income
// @Description Replace the profile's income record wholesale
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateIncomeRequest true "Income data"
// @Success     200 {object} ProfileResponse "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile/income [put]
func (h *ProfileHandler) UpdateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.UpdateIncome(models.IncomeData{
		Amount:     req.Amount,
		Frequency:  req.Frequency,
		Confidence: req.Confidence,
		IsEstimate: req.IsEstimate,
		Source:     req.Source,
	})
	h.respondProfile(c, engine, http.StatusOK)
}

// UpdateName sets the profile display name.
// @Summary     Update name
// @Description Set the profile's display name
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateNameRequest true "Display name"
// @Success     200 {object} ProfileResponse "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile/name [put]
func (h *ProfileHandler) UpdateName(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.SetUserName(req.Name)
	h.respondProfile(c, engine, http.StatusOK)
}

// CompleteOnboarding marks onboarding as finished.
// @Summary     Complete onboarding
// @Description Mark onboarding as finished and persist immediately
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ProfileResponse "Updated profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile/onboarding/complete [post]
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	// The flag is committed locally regardless of the persist outcome;
	// a remote failure only shows up in sync_status.
	_ = engine.CompleteOnboarding(c.Request.Context())
	h.respondProfile(c, engine, http.StatusOK)
}

// ResetProfile wipes the caller's financial data.
// @Summary     Reset profile
// @Description Replace the profile with an empty one and delete stored data
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ProfileResponse "Fresh empty profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile/reset [post]
func (h *ProfileHandler) ResetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.ResetProfile(c.Request.Context())
	h.respondProfile(c, engine, http.StatusOK)
}
