package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finresolve/internal/errors"
	"finresolve/internal/ingest"
	"finresolve/internal/models"
	"finresolve/internal/pagination"
	"finresolve/internal/services"
	"finresolve/internal/sync"
	"finresolve/internal/uuid"
)

// SpendingHandler handles spending entries, statement imports and the
// per-category summaries. The user service backs the feed endpoint,
// which names its target user instead of carrying a token.
type SpendingHandler struct {
	registry    *sync.Registry
	userService services.UserServicer
}

// NewSpendingHandler creates a new SpendingHandler.
func NewSpendingHandler(registry *sync.Registry, userService services.UserServicer) *SpendingHandler {
	return &SpendingHandler{registry: registry, userService: userService}
}

// AddSpendingRequest represents the request payload for adding an entry.
type AddSpendingRequest struct {
	Category     models.Category   `json:"category" binding:"required,spending_category"`
	Amount       decimal.Decimal   `json:"amount" binding:"required"`
	Confidence   models.Confidence `json:"confidence" binding:"omitempty,confidence"`
	Description  string            `json:"description" binding:"max=500"`
	Date         *time.Time        `json:"date"`
	MerchantName string            `json:"merchant_name" binding:"max=200"`
	Type         models.EntryType  `json:"type" binding:"omitempty,entry_type"`
}

// AddSummaryRequest represents the request payload for accumulating into a
// category summary.
type AddSummaryRequest struct {
	Category   models.Category   `json:"category" binding:"required,spending_category"`
	Amount     decimal.Decimal   `json:"amount" binding:"required"`
	Confidence models.Confidence `json:"confidence" binding:"required,confidence"`
}

// ReplaceSummariesRequest represents the request payload for replacing the
// summary collection wholesale.
type ReplaceSummariesRequest struct {
	Summaries []SummaryItem `json:"summaries" binding:"required,dive"`
}

// SummaryItem is one per-category total in a summary replacement.
type SummaryItem struct {
	Category         models.Category   `json:"category" binding:"required,spending_category"`
	Total            decimal.Decimal   `json:"total" binding:"required"`
	Confidence       models.Confidence `json:"confidence" binding:"required,confidence"`
	TransactionCount int               `json:"transaction_count" binding:"omitempty,min=0"`
}

// ImportResponse reports the outcome of a statement import.
type ImportResponse struct {
	Imported int                    `json:"imported"`
	Entries  []models.SpendingEntry `json:"entries"`
}

// AddSpending records one spending entry.
// @Summary     Add a spending entry
// @Description Append a manually entered transaction to the profile
// @Tags        spending
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddSpendingRequest true "Entry details"
// @Success     201 {object} models.SpendingEntry "Entry recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /spending [post]
func (h *SpendingHandler) AddSpending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddSpendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if req.Confidence == "" {
		req.Confidence = models.ConfidenceHigh
	}
	if req.Type == "" {
		req.Type = models.EntryTypeExpense
	}

	entry := models.SpendingEntry{
		ID:           uuid.New(),
		Category:     req.Category,
		Amount:       req.Amount,
		Confidence:   req.Confidence,
		Source:       models.SpendingSourceManual,
		Description:  req.Description,
		Date:         req.Date,
		MerchantName: req.MerchantName,
		Type:         req.Type,
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.AddSpending(entry)

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ListSpending lists the profile's spending entries.
// @Summary     List spending entries
// @Description Get a paginated list of the profile's spending entries
// @Tags        spending
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.SpendingEntry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /spending [get]
func (h *SpendingHandler) ListSpending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	engine := h.registry.ForUser(c.Request.Context(), userID)
	entries := engine.Profile().MonthlySpending

	// The engine already holds the full collection in memory, so the
	// page is sliced here rather than queried.
	total := int64(len(entries))
	start := page.Offset()
	if start > len(entries) {
		start = len(entries)
	}
	end := start + page.PageSize
	if end > len(entries) {
		end = len(entries)
	}

	c.JSON(http.StatusOK, pagination.NewPageResponse(entries[start:end], page.Page, page.PageSize, total))
}

// ImportStatement parses an uploaded CSV statement and merges its
// transactions into the profile.
// @Summary     Import a statement
// @Description Upload a CSV bank statement and merge its transactions
// @Tags        spending
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "CSV statement"
// @Success     200 {object} ImportResponse "Import result"
// @Failure     400 {object} ErrorResponse "Invalid or empty statement"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /spending/import [post]
func (h *SpendingHandler) ImportStatement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "A statement file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	entries, err := ingest.ParseCSV(file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.MergeUploadedData(entries)

	c.JSON(http.StatusOK, ImportResponse{Imported: len(entries), Entries: entries})
}

// ImportFeed ingests a statement pushed by an automated bank feed. The
// route is protected by the feed API key instead of a user token, so the
// target user is named in the form.
// @Summary     Ingest a feed statement
// @Description Accept a CSV statement pushed by an automated bank feed
// @Tags        spending
// @Accept      multipart/form-data
// @Produce     json
// @Param       user_id formData string true "Target user id"
// @Param       file    formData file   true "CSV statement"
// @Success     200 {object} ImportResponse "Import result"
// @Failure     400 {object} ErrorResponse "Invalid or empty statement"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Unknown user"
// @Router      /feed/statements [post]
func (h *SpendingHandler) ImportFeed(c *gin.Context) {
	userID := c.PostForm("user_id")
	if !uuid.IsValid(userID) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid user_id"))
		return
	}

	// A mistyped target would otherwise spin up an engine that can never
	// persist, while the feed keeps getting 200s.
	if _, err := h.userService.GetUserByID(userID); err != nil {
		respondWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "A statement file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	entries, err := ingest.ParseCSV(file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.MergeUploadedData(entries)

	c.JSON(http.StatusOK, ImportResponse{Imported: len(entries), Entries: entries})
}

// AddSummary accumulates an amount into a category summary.
// @Summary     Add to a spending summary
// @Description Accumulate an amount into the per-category summary
// @Tags        spending
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddSummaryRequest true "Summary delta"
// @Success     200 {object} ProfileResponse "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /spending/summaries [post]
func (h *SpendingHandler) AddSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.AddSpendingSummary(req.Category, req.Amount, req.Confidence)

	c.JSON(http.StatusOK, gin.H{"spending_summary": engine.Profile().SpendingSummary})
}

// ReplaceSummaries swaps the whole summary collection.
// @Summary     Replace spending summaries
// @Description Replace the per-category summary collection wholesale
// @Tags        spending
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ReplaceSummariesRequest true "New summary collection"
// @Success     200 {object} ProfileResponse "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /spending/summaries [put]
func (h *SpendingHandler) ReplaceSummaries(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReplaceSummariesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	summaries := make([]models.SpendingSummary, 0, len(req.Summaries))
	for _, item := range req.Summaries {
		summaries = append(summaries, models.SpendingSummary{
			Category:         item.Category,
			Total:            item.Total,
			Confidence:       item.Confidence,
			TransactionCount: item.TransactionCount,
		})
	}

	engine := h.registry.ForUser(c.Request.Context(), userID)
	engine.UpdateSpendingSummary(summaries)

	c.JSON(http.StatusOK, gin.H{"spending_summary": engine.Profile().SpendingSummary})
}
