package notification

import (
	"context"
	"fmt"

	"bookline/config"
	"bookline/models"
	"bookline/utils"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Service alerts tenant operators about conversations that need a human.
// Delivery is best effort; failures are logged, never propagated, so an
// alert hiccup cannot fail the escalation itself.
type Service interface {
	NotifyEscalation(ctx context.Context, tenant *models.TenantConfig, customerRef, reason string)
}

// FCMService sends push alerts to the operator devices registered on the
// tenant via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService initializes the Firebase app from the configured
// credentials file.
func NewFCMService(ctx context.Context) (*FCMService, error) {
	app, err := firebase.NewApp(ctx, nil,
		option.WithCredentialsFile(config.AppConfig.FirebaseCredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init fcm client: %w", err)
	}
	return &FCMService{client: client}, nil
}

// NotifyEscalation pushes an alert to every registered operator device.
func (s *FCMService) NotifyEscalation(ctx context.Context, tenant *models.TenantConfig, customerRef, reason string) {
	if len(tenant.OperatorDeviceTokens) == 0 {
		return
	}
	for _, token := range tenant.OperatorDeviceTokens {
		_, err := s.client.Send(ctx, &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: fmt.Sprintf("%s needs you", tenant.BusinessName),
				Body:  fmt.Sprintf("Conversation with %s was escalated: %s", customerRef, reason),
			},
			Data: map[string]string{
				"tenant_id":    tenant.ID,
				"customer_ref": customerRef,
			},
		})
		if err != nil {
			utils.GetLogger().Warn("escalation push failed",
				zap.String("tenant", tenant.ID),
				zap.Error(err))
		}
	}
}

// NoopService is used when Firebase credentials are not configured.
type NoopService struct{}

func (NoopService) NotifyEscalation(ctx context.Context, tenant *models.TenantConfig, customerRef, reason string) {
	utils.GetLogger().Info("escalation (push disabled)",
		zap.String("tenant", tenant.ID),
		zap.String("customer", customerRef),
		zap.String("reason", reason))
}
