package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/servicedesk/internal/domain"
)

const keyConversation = "servicedesk:chat:"

// ChatHistory is an append-only, per-conversation message log. Old entries
// beyond the limit are trimmed from the head.
type ChatHistory struct {
	client redis.Cmdable
	ttl    time.Duration
	limit  int64
}

func NewChatHistory(client redis.Cmdable, ttl time.Duration, limit int) *ChatHistory {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	if limit <= 0 {
		limit = 200
	}
	return &ChatHistory{client: client, ttl: ttl, limit: int64(limit)}
}

// Claim binds a conversation to its owner. It reports false when the
// conversation already belongs to someone else.
func (h *ChatHistory) Claim(ctx context.Context, conversationID, ownerID string) (bool, error) {
	if h == nil || h.client == nil {
		return false, ErrDisabled
	}
	key := ownerKey(conversationID)
	if err := h.client.SetNX(ctx, key, ownerID, h.ttl).Err(); err != nil {
		return false, err
	}
	owner, err := h.client.Get(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return owner == ownerID, nil
}

// Owner returns the owner of a conversation or ErrMiss.
func (h *ChatHistory) Owner(ctx context.Context, conversationID string) (string, error) {
	if h == nil || h.client == nil {
		return "", ErrDisabled
	}
	owner, err := h.client.Get(ctx, ownerKey(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return owner, err
}

// Append adds messages in order and refreshes the TTL.
func (h *ChatHistory) Append(ctx context.Context, conversationID string, messages ...domain.ChatMessage) error {
	if h == nil || h.client == nil {
		return ErrDisabled
	}
	if len(messages) == 0 {
		return nil
	}
	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		raw, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("cache: encode chat message: %w", err)
		}
		values = append(values, raw)
	}
	key := messagesKey(conversationID)
	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, -h.limit, -1)
		pipe.Expire(ctx, key, h.ttl)
		pipe.Expire(ctx, ownerKey(conversationID), h.ttl)
		return nil
	})
	return err
}

// Load returns the conversation oldest first. Unknown conversations are empty.
func (h *ChatHistory) Load(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	if h == nil || h.client == nil {
		return nil, ErrDisabled
	}
	raw, err := h.client.LRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChatMessage, 0, len(raw))
	for _, entry := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("cache: decode chat message: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func messagesKey(id string) string { return keyConversation + id + ":messages" }
func ownerKey(id string) string    { return keyConversation + id + ":owner" }
