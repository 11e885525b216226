package utils

import (
	"testing"
	"time"

	"bookline/config"
)

func TestTokenRoundTripUsesConfiguredSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "configured-secret"
	defer func() { config.AppConfig.JWTSecret = "" }()

	token, err := GenerateToken("maria", "t-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	operator, tenantID, err := OperatorClaims(token)
	if err != nil {
		t.Fatalf("OperatorClaims: %v", err)
	}
	if operator != "maria" || tenantID != "t-1" {
		t.Errorf("claims do not round-trip: %s/%s", operator, tenantID)
	}

	// A token minted under one secret must not validate under another.
	config.AppConfig.JWTSecret = "rotated-secret"
	if _, _, err := OperatorClaims(token); err == nil {
		t.Error("token signed with the old secret should be rejected")
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	config.AppConfig.JWTSecret = "configured-secret"
	defer func() { config.AppConfig.JWTSecret = "" }()

	token, err := GenerateToken("maria", "t-1", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, _, err := OperatorClaims(token); err == nil {
		t.Error("expired token should be rejected")
	}
}
