package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicestash/invoicestash/internal/service"
	"gorm.io/gorm"
)

// DocumentHandler handles document and delivery endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler creates a new document handler.
// Parameters:
//   - documents: document service instance.
// Returns:
//   - *DocumentHandler: initialized handler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// List handles GET /api/v1/documents.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list documents: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     len(docs),
	})
}

// DeleteAll handles DELETE /api/v1/documents.
func (h *DocumentHandler) DeleteAll(c *gin.Context) {
	if err := h.documents.DeleteAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete documents: " + err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteRequest is the body of POST /api/v1/documents/delete.
type DeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// Delete handles POST /api/v1/documents/delete for bulk removal.
func (h *DocumentHandler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.documents.Delete(c.Request.Context(), req.IDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete documents: " + err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// File handles GET /api/v1/documents/:id/file, streaming the artifact with
// its rendered file name.
func (h *DocumentHandler) File(c *gin.Context) {
	name, data, err := h.documents.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusGone, gin.H{
			"error": "Document is no longer available: " + err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// Download handles POST /api/v1/documents/:id/download, archiving the
// artifact under its rendered file name.
func (h *DocumentHandler) Download(c *gin.Context) {
	key, err := h.documents.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to archive document: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"file": key})
}

// MailRequest is the body of POST /api/v1/documents/:id/mail.
type MailRequest struct {
	Recipient string `json:"recipient" binding:"required"`
}

// Mail handles POST /api/v1/documents/:id/mail.
func (h *DocumentHandler) Mail(c *gin.Context) {
	var req MailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.documents.Mail(c.Request.Context(), c.Param("id"), req.Recipient); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to mail document: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// DeliveryRecord is the body for manual delivery-record inserts.
type DeliveryRecord struct {
	AccountName string `json:"account_name" binding:"required"`
	FileName    string `json:"file_name" binding:"required"`
}

// ListEmailed handles GET /api/v1/deliveries/emailed.
func (h *DocumentHandler) ListEmailed(c *gin.Context) {
	records, err := h.documents.ListEmailed(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list mail deliveries: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": records, "total": len(records)})
}

// MarkEmailed handles POST /api/v1/deliveries/emailed.
func (h *DocumentHandler) MarkEmailed(c *gin.Context) {
	var req DeliveryRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.documents.MarkEmailed(c.Request.Context(), req.AccountName, req.FileName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record delivery: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// ClearEmailed handles DELETE /api/v1/deliveries/emailed.
func (h *DocumentHandler) ClearEmailed(c *gin.Context) {
	if err := h.documents.ClearEmailed(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear mail deliveries: " + err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDownloaded handles GET /api/v1/deliveries/downloaded.
func (h *DocumentHandler) ListDownloaded(c *gin.Context) {
	records, err := h.documents.ListDownloaded(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list downloads: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": records, "total": len(records)})
}

// MarkDownloaded handles POST /api/v1/deliveries/downloaded.
func (h *DocumentHandler) MarkDownloaded(c *gin.Context) {
	var req DeliveryRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.documents.MarkDownloaded(c.Request.Context(), req.AccountName, req.FileName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record download: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// ClearDownloaded handles DELETE /api/v1/deliveries/downloaded.
func (h *DocumentHandler) ClearDownloaded(c *gin.Context) {
	if err := h.documents.ClearDownloaded(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear downloads: " + err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}
