package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"medbs-backend/internal/adherence/domain"
	"medbs-backend/internal/adherence/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdherenceHandler handles dose log HTTP requests
type AdherenceHandler struct {
	adherenceUsecase usecase.AdherenceUsecase
	log              *zap.Logger
}

// NewAdherenceHandler creates a new AdherenceHandler
func NewAdherenceHandler(adherenceUsecase usecase.AdherenceUsecase, log *zap.Logger) *AdherenceHandler {
	return &AdherenceHandler{
		adherenceUsecase: adherenceUsecase,
		log:              log.Named("adherence_handler"),
	}
}

// VoiceRequest represents a free-text confirmation
type VoiceRequest struct {
	Transcript string `json:"transcript"`
}

// RegisterRoutes mounts the adherence endpoints on an authenticated group.
func (h *AdherenceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	adherence := rg.Group("/adherence")
	{
		adherence.GET("", h.ListOccurrences)
		adherence.GET("/stats", h.GetStats)
		adherence.POST("", h.LogDose)
		adherence.PUT("/:id", h.UpdateOccurrence)
		adherence.POST("/voice", h.ConfirmVoice)
	}
}

// ListOccurrences returns the user's dose log
// GET /api/adherence?date=2026-03-10&medicine_id=...
func (h *AdherenceHandler) ListOccurrences(c *gin.Context) {
	userID := c.GetString("userID")

	occurrences, err := h.adherenceUsecase.ListOccurrences(c.Request.Context(), userID, c.Query("date"), c.Query("medicine_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if occurrences == nil {
		occurrences = []*domain.DoseOccurrence{}
	}

	c.JSON(http.StatusOK, occurrences)
}

// GetStats returns adherence statistics for the last N days
// GET /api/adherence/stats?days=7
func (h *AdherenceHandler) GetStats(c *gin.Context) {
	userID := c.GetString("userID")

	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(usecase.DefaultStatsWindow)))
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
		return
	}

	stats, err := h.adherenceUsecase.ComputeAdherenceStats(c.Request.Context(), userID, days)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// LogDose records a dose by hand
// POST /api/adherence
func (h *AdherenceHandler) LogDose(c *gin.Context) {
	userID := c.GetString("userID")

	var req usecase.ManualLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	occ, err := h.adherenceUsecase.CreateManualOccurrence(c.Request.Context(), userID, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, occ)
}

// UpdateOccurrence marks a dose taken or snoozes it
// PUT /api/adherence/:id
func (h *AdherenceHandler) UpdateOccurrence(c *gin.Context) {
	userID := c.GetString("userID")
	occurrenceID := c.Param("id")

	var req usecase.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	occ, err := h.adherenceUsecase.UpdateOccurrence(c.Request.Context(), userID, occurrenceID, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, occ)
}

// ConfirmVoice confirms every pending dose of today from a transcript
// POST /api/adherence/voice
func (h *AdherenceHandler) ConfirmVoice(c *gin.Context) {
	userID := c.GetString("userID")

	var req VoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.adherenceUsecase.BulkConfirmToday(c.Request.Context(), userID, req.Transcript)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AdherenceHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrOccurrenceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Occurrence not found"})
	case errors.Is(err, domain.ErrMedicineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Medicine not found"})
	case errors.Is(err, domain.ErrOccurrenceExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidSlot),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrEmptyUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", c.GetString("userID")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
