package handlers

import (
	"net/http"
	"time"

	tenantRepo "bookline/database/repository/tenant"
	"bookline/middleware"
	"bookline/models"
	"bookline/services/conversation"
	"bookline/services/notification"
	"bookline/services/whatsapp"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// OperatorHandler is the side channel for humans: login, replying in a
// conversation, escalating and resolving.
type OperatorHandler struct {
	Tenants   tenantRepo.TenantRepository
	Ownership conversation.OwnershipStore
	Memory    conversation.MemoryStore
	WhatsApp  *whatsapp.Client
	Notifier  notification.Service
	Locks     *conversation.KeyMutex
}

// NewOperatorHandler constructs the handler.
func NewOperatorHandler(tenants tenantRepo.TenantRepository, ownership conversation.OwnershipStore,
	memory conversation.MemoryStore, wa *whatsapp.Client, notifier notification.Service,
	locks *conversation.KeyMutex) *OperatorHandler {
	return &OperatorHandler{
		Tenants: tenants, Ownership: ownership, Memory: memory,
		WhatsApp: wa, Notifier: notifier, Locks: locks,
	}
}

// Login exchanges the tenant operator password for a bearer token.
func (h *OperatorHandler) Login(c *gin.Context) {
	var input struct {
		TenantID     string `json:"tenant_id" binding:"required"`
		OperatorName string `json:"operator_name" binding:"required"`
		Password     string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	tenant, err := h.Tenants.GetByID(input.TenantID)
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "invalid credentials", "")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(tenant.OperatorPasswordHash), []byte(input.Password)) != nil {
		utils.JSONError(c, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	token, err := utils.GenerateToken(input.OperatorName, tenant.ID, 24*time.Hour)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "token generation failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int((24 * time.Hour).Seconds())})
}

// Send delivers an operator message to the customer. Ownership flips to
// human only after the outbound send succeeded; a failed send changes
// nothing.
func (h *OperatorHandler) Send(c *gin.Context) {
	var input struct {
		EndUserID string `json:"end_user_id" binding:"required"`
		Message   string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	tenantID := c.GetString(middleware.CtxTenantID)
	operator := c.GetString(middleware.CtxOperatorName)

	tenant, err := h.Tenants.GetByID(tenantID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "tenant not found", "")
		return
	}

	unlock := h.Locks.Lock(tenantID, input.EndUserID)
	defer unlock()

	messageID, err := h.WhatsApp.SendText(c.Request.Context(), tenant.WhatsApp, input.EndUserID, input.Message)
	if err != nil {
		utils.GetLogger().Error("operator send failed",
			zap.String("tenant", tenantID),
			zap.String("operator", operator),
			zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "message could not be delivered", "")
		return
	}

	h.Memory.RememberSent(c.Request.Context(), tenantID, messageID)
	if err := h.Ownership.MarkHuman(c.Request.Context(), tenantID, input.EndUserID, operator); err != nil {
		// The message is already with the customer; log and report success.
		utils.GetLogger().Error("ownership update failed after operator send",
			zap.String("tenant", tenantID), zap.Error(err))
	}
	h.Memory.AppendMessage(c.Request.Context(), tenantID, input.EndUserID, models.Message{
		Role: "assistant", Content: input.Message, Human: true, Operator: operator,
	})

	c.JSON(http.StatusOK, gin.H{"status": "sent", "message_id": messageID})
}

// Escalate marks a conversation as needing human attention.
func (h *OperatorHandler) Escalate(c *gin.Context) {
	var input struct {
		EndUserID string `json:"end_user_id" binding:"required"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	tenantID := c.GetString(middleware.CtxTenantID)
	operator := c.GetString(middleware.CtxOperatorName)

	unlock := h.Locks.Lock(tenantID, input.EndUserID)
	defer unlock()

	if err := h.Ownership.MarkEscalated(c.Request.Context(), tenantID, input.EndUserID, operator, input.Reason); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "escalation failed", "")
		return
	}
	if tenant, err := h.Tenants.GetByID(tenantID); err == nil {
		h.Notifier.NotifyEscalation(c.Request.Context(), tenant, input.EndUserID, input.Reason)
	}
	c.JSON(http.StatusOK, gin.H{"status": "escalated"})
}

// Resolve finishes a handoff. With resume=true the assistant takes over
// again; otherwise the conversation stays with the operator and the
// takeover window is refreshed.
func (h *OperatorHandler) Resolve(c *gin.Context) {
	var input struct {
		EndUserID string `json:"end_user_id" binding:"required"`
		Resume    bool   `json:"resume"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	tenantID := c.GetString(middleware.CtxTenantID)
	operator := c.GetString(middleware.CtxOperatorName)

	unlock := h.Locks.Lock(tenantID, input.EndUserID)
	defer unlock()

	var err error
	if input.Resume {
		err = h.Ownership.Resolve(c.Request.Context(), tenantID, input.EndUserID)
	} else {
		err = h.Ownership.MarkHuman(c.Request.Context(), tenantID, input.EndUserID, operator)
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "resolve failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved", "assistant_resumed": input.Resume})
}

// Status reports the ownership record and recent log of a conversation.
func (h *OperatorHandler) Status(c *gin.Context) {
	endUserID := c.Query("end_user_id")
	if endUserID == "" {
		utils.JSONError(c, http.StatusBadRequest, "end_user_id is required", "")
		return
	}
	tenantID := c.GetString(middleware.CtxTenantID)

	ownership, err := h.Ownership.Get(c.Request.Context(), tenantID, endUserID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "ownership read failed", "")
		return
	}
	history, err := h.Memory.History(c.Request.Context(), tenantID, endUserID)
	if err != nil {
		utils.GetLogger().Warn("history read failed", zap.String("tenant", tenantID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"ownership": ownership, "messages": history})
}
