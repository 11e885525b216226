package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"bookline/config"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestValidSignature(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account"}`)

	config.AppConfig.WhatsAppAppSecret = "top-secret"
	defer func() { config.AppConfig.WhatsAppAppSecret = "" }()

	if !validSignature(body, signBody("top-secret", body)) {
		t.Error("correctly signed body should pass")
	}
	if validSignature(body, signBody("wrong-secret", body)) {
		t.Error("signature with wrong secret should fail")
	}
	if validSignature([]byte(`{"tampered":true}`), signBody("top-secret", body)) {
		t.Error("tampered body should fail")
	}
	if validSignature(body, "") {
		t.Error("missing header should fail when a secret is configured")
	}
	if validSignature(body, "sha256=") {
		t.Error("empty signature should fail")
	}
}

func TestValidSignatureSkippedWithoutSecret(t *testing.T) {
	config.AppConfig.WhatsAppAppSecret = ""

	if !validSignature([]byte("anything"), "") {
		t.Error("check should be skipped when no app secret is configured")
	}
}
