package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline/config"
	"bookline/models"

	"github.com/go-redis/redis/v8"
)

// OwnershipStore arbitrates who controls a conversation. The default
// controller is the assistant; human and escalated states expire via the
// store's native TTL, so expiry is observed lazily on the next read.
type OwnershipStore interface {
	Get(ctx context.Context, tenantID, userID string) (*models.ConversationOwnership, error)
	MarkHuman(ctx context.Context, tenantID, userID, operatorName string) error
	MarkEscalated(ctx context.Context, tenantID, userID, operatorName, reason string) error
	Resolve(ctx context.Context, tenantID, userID string) error
}

// RedisOwnershipStore implements OwnershipStore over the conversation
// Redis database.
type RedisOwnershipStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOwnershipStore builds the store with the configured handoff TTL.
func NewRedisOwnershipStore(client *redis.Client) *RedisOwnershipStore {
	return &RedisOwnershipStore{
		client: client,
		ttl:    time.Duration(config.AppConfig.HumanHandoffTTLSecs) * time.Second,
	}
}

func ownershipKey(tenantID, userID string) string {
	return fmt.Sprintf("chat:%s:%s:ownership", tenantID, userID)
}

// Get returns the current ownership record. A missing or expired key
// means the assistant is in control.
func (s *RedisOwnershipStore) Get(ctx context.Context, tenantID, userID string) (*models.ConversationOwnership, error) {
	raw, err := s.client.Get(ctx, ownershipKey(tenantID, userID)).Result()
	if err == redis.Nil {
		return &models.ConversationOwnership{Controller: models.ControllerAssistant}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ownership read failed: %w", err)
	}
	var record models.ConversationOwnership
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("corrupt ownership record for %s/%s: %w", tenantID, userID, err)
	}
	return &record, nil
}

// MarkHuman hands the conversation to an operator. Repeated calls
// refresh the TTL (sliding expiry) and keep the latest operator name.
func (s *RedisOwnershipStore) MarkHuman(ctx context.Context, tenantID, userID, operatorName string) error {
	return s.set(ctx, tenantID, userID, &models.ConversationOwnership{
		Controller:   models.ControllerHuman,
		OperatorName: operatorName,
		Since:        time.Now().UTC(),
	})
}

// MarkEscalated flags the conversation as needing human attention.
// Either the assistant (empty operatorName) or an operator may escalate.
func (s *RedisOwnershipStore) MarkEscalated(ctx context.Context, tenantID, userID, operatorName, reason string) error {
	return s.set(ctx, tenantID, userID, &models.ConversationOwnership{
		Controller:       models.ControllerEscalated,
		OperatorName:     operatorName,
		Since:            time.Now().UTC(),
		EscalationReason: reason,
	})
}

// Resolve hands control back to the assistant immediately.
func (s *RedisOwnershipStore) Resolve(ctx context.Context, tenantID, userID string) error {
	if err := s.client.Del(ctx, ownershipKey(tenantID, userID)).Err(); err != nil {
		return fmt.Errorf("ownership resolve failed: %w", err)
	}
	return nil
}

func (s *RedisOwnershipStore) set(ctx context.Context, tenantID, userID string, record *models.ConversationOwnership) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("ownership encode failed: %w", err)
	}
	if err := s.client.Set(ctx, ownershipKey(tenantID, userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("ownership write failed: %w", err)
	}
	return nil
}
