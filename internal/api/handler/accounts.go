package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicestash/invoicestash/internal/provider"
	"github.com/invoicestash/invoicestash/internal/service"
	"gorm.io/gorm"
)

// AccountHandler handles account management endpoints.
type AccountHandler struct {
	accounts *service.AccountService
	registry *provider.Registry
}

// NewAccountHandler creates a new account handler.
// Parameters:
//   - accounts: account service instance.
//   - registry: provider registry serving the catalog.
// Returns:
//   - *AccountHandler: initialized handler.
func NewAccountHandler(accounts *service.AccountService, registry *provider.Registry) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		registry: registry,
	}
}

// Providers handles GET /api/v1/providers.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AccountHandler) Providers(c *gin.Context) {
	catalog := h.registry.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"providers": catalog,
		"total":     len(catalog),
	})
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list accounts: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts": accounts,
		"total":    len(accounts),
	})
}

// Create handles POST /api/v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req service.AccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create account: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, account)
}

// Update handles PUT /api/v1/accounts/:id. Credential fields left empty keep
// their stored secrets.
func (h *AccountHandler) Update(c *gin.Context) {
	var req service.AccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	account, err := h.accounts.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update account: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, account)
}

// Delete handles DELETE /api/v1/accounts/:id.
func (h *AccountHandler) Delete(c *gin.Context) {
	err := h.accounts.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete account: " + err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}
