package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/service"
)

// FetchHandler handles fetch session endpoints.
type FetchHandler struct {
	fetch *service.FetchService
}

// NewFetchHandler creates a new fetch handler.
// Parameters:
//   - fetch: fetch service instance.
// Returns:
//   - *FetchHandler: initialized handler.
func NewFetchHandler(fetch *service.FetchService) *FetchHandler {
	return &FetchHandler{fetch: fetch}
}

// FetchRequest is the body of POST /api/v1/fetch. Dates use the 2006-01-02
// layout; both bounds and the account selection are optional.
type FetchRequest struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	AccountIDs []string `json:"account_ids"`
}

// Run handles POST /api/v1/fetch. The call blocks until the session finishes;
// progress arrives out-of-band on the event stream.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *FetchHandler) Run(c *gin.Context) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	filter, err := domain.ParseDateRange(req.From, req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid date range: " + err.Error(),
		})
		return
	}

	result, err := h.fetch.Run(c.Request.Context(), filter, req.AccountIDs)
	if err != nil {
		if errors.Is(err, service.ErrSessionRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Fetch session failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitCodeRequest is the body of POST /api/v1/fetch/code.
type SubmitCodeRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// SubmitCode handles POST /api/v1/fetch/code. Submitting for an account that
// is not waiting is accepted and ignored.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *FetchHandler) SubmitCode(c *gin.Context) {
	var req SubmitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	h.fetch.SubmitCode(req.AccountID, req.Code)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
