// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"bookline/config"

	"github.com/go-redis/redis/v8"
)

var (
	// ConversationClient backs the conversation memory and ownership store.
	ConversationClient *redis.Client
	// CacheClient is the generic cache client (catalog text, dedupe keys).
	CacheClient *redis.Client
)

// InitConversationStore initializes the Redis client that holds conversation
// history and ownership state.
func InitConversationStore() {
	ConversationClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisConversationDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := ConversationClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Conversations): %v", err)
	}
}

// GetConversationClient returns the conversation store client.
func GetConversationClient() *redis.Client {
	if ConversationClient == nil {
		InitConversationStore()
	}
	return ConversationClient
}

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}
