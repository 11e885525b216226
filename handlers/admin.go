package handlers

import (
	"net/http"

	tenantRepo "bookline/database/repository/tenant"
	"bookline/middleware"
	"bookline/models"
	"bookline/services/catalog"
	"bookline/services/conversation"
	"bookline/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler manages tenant configuration. Operators may only touch
// the tenant their token is scoped to.
type AdminHandler struct {
	Tenants tenantRepo.TenantRepository
	Catalog catalog.Service
	Memory  conversation.MemoryStore
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(tenants tenantRepo.TenantRepository, catalogSvc catalog.Service, memory conversation.MemoryStore) *AdminHandler {
	return &AdminHandler{Tenants: tenants, Catalog: catalogSvc, Memory: memory}
}

// GetTenant returns the caller's tenant configuration.
func (h *AdminHandler) GetTenant(c *gin.Context) {
	tenantID := c.GetString(middleware.CtxTenantID)
	tenant, err := h.Tenants.GetByID(tenantID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "tenant not found", "")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// UpsertTenant validates and saves the tenant configuration. Validation
// happens once here so the dispatcher can trust the stored record.
func (h *AdminHandler) UpsertTenant(c *gin.Context) {
	var tenant models.TenantConfig
	if err := c.ShouldBindJSON(&tenant); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if tenant.ID != c.GetString(middleware.CtxTenantID) {
		utils.JSONError(c, http.StatusForbidden, "token is not scoped to this tenant", "")
		return
	}
	if err := tenant.Validate(); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid tenant configuration", err.Error())
		return
	}
	if err := h.Tenants.Upsert(&tenant); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "save failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// ResetConversation wipes a customer's message log, for support cases
// where a conversation went off the rails or the customer asked for it.
// Ownership state is untouched.
func (h *AdminHandler) ResetConversation(c *gin.Context) {
	tenantID := c.GetString(middleware.CtxTenantID)
	customer := c.Query("customer")
	if customer == "" {
		utils.JSONError(c, http.StatusBadRequest, "customer query parameter is required", "")
		return
	}
	if err := h.Memory.ClearHistory(c.Request.Context(), tenantID, customer); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "history reset failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// InvalidateCatalogCache drops the cached menu text so the next message
// re-reads the published PDF.
func (h *AdminHandler) InvalidateCatalogCache(c *gin.Context) {
	tenantID := c.GetString(middleware.CtxTenantID)
	if err := h.Catalog.Invalidate(c.Request.Context(), tenantID); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "cache invalidation failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
