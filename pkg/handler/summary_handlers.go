// Summary API handlers
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/groupzer0/flowbaby/pkg/db"
	"github.com/groupzer0/flowbaby/pkg/service"
	"github.com/groupzer0/flowbaby/pkg/summary"
)

// SummaryHandler handles summary-related API requests
type SummaryHandler struct {
	summaryService *service.SummaryService
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summaryService *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
	}
}

// RegisterRoutes registers summary routes
func (h *SummaryHandler) RegisterRoutes(r *gin.RouterGroup) {
	summaries := r.Group("/workspaces/:id/summaries")
	{
		summaries.GET("", h.ListSummaries)
		summaries.POST("", h.CreateSummary)
		summaries.GET("/:summary_id", h.GetSummary)
		summaries.GET("/:summary_id/text", h.GetSummaryText)
		summaries.DELETE("/:summary_id", h.DeleteSummary)
		summaries.POST("/search", h.SearchSummaries)
	}
}

// ListSummaries lists summaries for a workspace
// GET /api/workspaces/:id/summaries
func (h *SummaryHandler) ListSummaries(c *gin.Context) {
	workspaceID := c.Param("id")

	opts := &db.SummaryQueryOptions{
		WorkspaceID: workspaceID,
		OrderBy:     "updated_at",
		OrderDesc:   true,
	}

	if status := c.Query("status"); status != "" {
		opts.Statuses = []string{status}
	}
	if topicID := c.Query("topic_id"); topicID != "" {
		opts.TopicID = topicID
	}
	if keyword := c.Query("keyword"); keyword != "" {
		opts.Keyword = keyword
	}
	if limit := c.Query("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	records, err := h.summaryService.Query(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summaries": records,
		"count":     len(records),
	})
}

// CreateSummary validates, encodes and stores a summary
// POST /api/workspaces/:id/summaries
func (h *SummaryHandler) CreateSummary(c *gin.Context) {
	workspaceID := c.Param("id")

	var sum summary.ConversationSummary
	if err := c.ShouldBindJSON(&sum); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.summaryService.Save(c.Request.Context(), workspaceID, &sum)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetSummary retrieves a single summary record
// GET /api/workspaces/:id/summaries/:summary_id
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	summaryID := c.Param("summary_id")

	record, err := h.summaryService.Get(c.Request.Context(), summaryID)
	if err != nil {
		if errors.Is(err, service.ErrSummaryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetSummaryText returns the encoded text body as plain text
// GET /api/workspaces/:id/summaries/:summary_id/text
func (h *SummaryHandler) GetSummaryText(c *gin.Context) {
	summaryID := c.Param("summary_id")

	record, err := h.summaryService.Get(c.Request.Context(), summaryID)
	if err != nil {
		if errors.Is(err, service.ErrSummaryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.String(http.StatusOK, record.Body)
}

// DeleteSummary deletes a summary
// DELETE /api/workspaces/:id/summaries/:summary_id
func (h *SummaryHandler) DeleteSummary(c *gin.Context) {
	summaryID := c.Param("summary_id")

	if err := h.summaryService.Delete(c.Request.Context(), summaryID); err != nil {
		if errors.Is(err, service.ErrSummaryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "summary deleted"})
}

// SearchSummariesRequest represents a search request
type SearchSummariesRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}

// SearchSummaries performs semantic and keyword search
// POST /api/workspaces/:id/summaries/search
func (h *SummaryHandler) SearchSummaries(c *gin.Context) {
	workspaceID := c.Param("id")

	var req SearchSummariesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	results, err := h.summaryService.SearchCombined(c.Request.Context(), workspaceID, req.Query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// isValidationError reports whether err is a record validation failure
// rather than a storage failure.
func isValidationError(err error) bool {
	var tsErr *summary.InvalidTimestampError
	return errors.Is(err, summary.ErrMissingTopic) ||
		errors.Is(err, summary.ErrMissingContext) ||
		errors.Is(err, summary.ErrInvalidTopicID) ||
		errors.Is(err, summary.ErrInvalidStatus) ||
		errors.As(err, &tsErr)
}
