package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"bookline/config"
	"bookline/models"
	"bookline/services/processor"
	"bookline/utils"

	"github.com/gin-gonic/gin"
)

// WebhookHandler terminates the Meta webhook: subscription verification,
// signature checking and fan-out to the processor.
type WebhookHandler struct {
	Processor *processor.Processor
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(p *processor.Processor) *WebhookHandler {
	return &WebhookHandler{Processor: p}
}

// Verify answers Meta's GET subscription handshake.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == config.AppConfig.WhatsAppVerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	utils.JSONError(c, http.StatusForbidden, "verification failed", "")
}

// Receive accepts webhook deliveries. The signature is checked against
// the raw body before parsing; processing happens asynchronously and the
// 200 goes back immediately.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "unreadable body", "")
		return
	}

	if !validSignature(body, c.GetHeader("X-Hub-Signature-256")) {
		utils.GetLogger().Warn("webhook signature mismatch")
		utils.JSONError(c, http.StatusForbidden, "invalid signature", "")
		return
	}

	var payload models.WhatsAppWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "malformed payload", "")
		return
	}
	if payload.Object != "whatsapp_business_account" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	h.Processor.ProcessWebhook(&payload)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// validSignature checks the X-Hub-Signature-256 HMAC over the raw body.
// With no app secret configured the check is skipped (local development).
func validSignature(body []byte, header string) bool {
	secret := config.AppConfig.WhatsAppAppSecret
	if secret == "" {
		return true
	}
	signature := strings.TrimPrefix(header, "sha256=")
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
