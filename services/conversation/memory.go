package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline/config"
	"bookline/models"
	"bookline/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// dedupeTTL bounds how long a provider message id is remembered for
// at-least-once webhook deliveries.
const dedupeTTL = 5 * time.Minute

// MemoryStore keeps the recent message log per conversation plus the
// bookkeeping sets the webhook needs: processed message ids and the ids
// of messages this service itself sent.
type MemoryStore interface {
	AppendMessage(ctx context.Context, tenantID, userID string, msg models.Message)
	History(ctx context.Context, tenantID, userID string) ([]models.Message, error)
	ClearHistory(ctx context.Context, tenantID, userID string) error
	MarkProcessed(ctx context.Context, messageID string) (bool, error)
	RememberSent(ctx context.Context, tenantID, messageID string)
	WasSentByUs(ctx context.Context, tenantID, messageID string) bool
}

// RedisMemoryStore implements MemoryStore over the conversation Redis
// database.
type RedisMemoryStore struct {
	client *redis.Client
	ttl    time.Duration
	max    int
}

// NewRedisMemoryStore builds the store with the configured session TTL
// and history cap.
func NewRedisMemoryStore(client *redis.Client) *RedisMemoryStore {
	return &RedisMemoryStore{
		client: client,
		ttl:    time.Duration(config.AppConfig.SessionExpireSecs) * time.Second,
		max:    config.AppConfig.MaxContextMessages,
	}
}

func historyKey(tenantID, userID string) string {
	return fmt.Sprintf("chat:%s:%s", tenantID, userID)
}

// AppendMessage pushes a message onto the log, trims it to the recent
// cap and refreshes the TTL. Failures are logged and swallowed: the log
// is bookkeeping, never worth failing the send that preceded it.
func (s *RedisMemoryStore) AppendMessage(ctx context.Context, tenantID, userID string, msg models.Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		utils.GetLogger().Warn("message encode failed", zap.Error(err))
		return
	}
	key := historyKey(tenantID, userID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, int64(-s.max), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		utils.GetLogger().Warn("message log append failed",
			zap.String("tenant", tenantID),
			zap.String("user", userID),
			zap.Error(err))
	}
}

// History returns the logged messages, oldest first.
func (s *RedisMemoryStore) History(ctx context.Context, tenantID, userID string) ([]models.Message, error) {
	raws, err := s.client.LRange(ctx, historyKey(tenantID, userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history read failed: %w", err)
	}
	messages := make([]models.Message, 0, len(raws))
	for _, raw := range raws {
		var msg models.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// ClearHistory drops the message log for a conversation.
func (s *RedisMemoryStore) ClearHistory(ctx context.Context, tenantID, userID string) error {
	return s.client.Del(ctx, historyKey(tenantID, userID)).Err()
}

// MarkProcessed records a provider message id and reports whether this
// is the first time it was seen. Duplicated webhook deliveries get false.
func (s *RedisMemoryStore) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	first, err := s.client.SetNX(ctx, "processed:"+messageID, 1, dedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe check failed: %w", err)
	}
	return first, nil
}

// RememberSent records an outbound message id so its delivery-status
// callback is not mistaken for an operator message.
func (s *RedisMemoryStore) RememberSent(ctx context.Context, tenantID, messageID string) {
	key := fmt.Sprintf("sent:%s", tenantID)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, messageID)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		utils.GetLogger().Warn("sent-id record failed", zap.String("tenant", tenantID), zap.Error(err))
	}
}

// WasSentByUs reports whether an outbound message id originated from
// this service rather than a human typing in the business app.
func (s *RedisMemoryStore) WasSentByUs(ctx context.Context, tenantID, messageID string) bool {
	member, err := s.client.SIsMember(ctx, fmt.Sprintf("sent:%s", tenantID), messageID).Result()
	if err != nil {
		return false
	}
	return member
}
