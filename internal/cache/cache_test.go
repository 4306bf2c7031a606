package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestStoreSnapshots(t *testing.T) {
	srv, client := newRedis(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()

	_, err := store.LoadArticles(ctx)
	assert.ErrorIs(t, err, ErrMiss)

	articles := []domain.Article{{ID: "kb-1", Title: "Password Reset Guide", Tags: []string{"password"}}}
	require.NoError(t, store.SaveArticles(ctx, articles))
	got, err := store.LoadArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Password Reset Guide", got[0].Title)

	agents := []domain.Agent{{ID: "a1", PasswordHash: "secret", Skills: map[domain.Category]int{domain.CategoryNetwork: 4}}}
	require.NoError(t, store.SaveAgents(ctx, agents))
	roster, err := store.LoadAgents(ctx)
	require.NoError(t, err)
	assert.Empty(t, roster[0].PasswordHash)
	assert.Equal(t, 4, roster[0].Skills[domain.CategoryNetwork])
	assert.Equal(t, "secret", agents[0].PasswordHash, "caller slice is untouched")

	srv.FastForward(2 * time.Minute)
	_, err = store.LoadAgents(ctx)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestStoreTicket(t *testing.T) {
	_, client := newRedis(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()

	category := domain.CategoryEmail
	require.NoError(t, store.SaveTicket(ctx, &domain.Ticket{ID: "t1", Title: "Outlook", Category: &category}))
	got, err := store.LoadTicket(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryEmail, *got.Category)

	assert.Error(t, store.SaveTicket(ctx, &domain.Ticket{}))
}

func TestDisabledStore(t *testing.T) {
	store := NewStore(nil, 0)
	assert.ErrorIs(t, store.SaveArticles(context.Background(), nil), ErrDisabled)
	_, err := store.LoadTicket(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDisabled)

	history := NewChatHistory(nil, 0, 0)
	_, err = history.Load(context.Background(), "c")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestChatHistoryAppendOnly(t *testing.T) {
	_, client := newRedis(t)
	history := NewChatHistory(client, time.Hour, 3)
	ctx := context.Background()

	msgs, err := history.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, history.Append(ctx, "c1",
		domain.ChatMessage{Role: domain.ChatRoleUser, Text: "one"},
		domain.ChatMessage{Role: domain.ChatRoleAssistant, Text: "two"},
	))
	require.NoError(t, history.Append(ctx, "c1",
		domain.ChatMessage{Role: domain.ChatRoleUser, Text: "three"},
		domain.ChatMessage{Role: domain.ChatRoleAssistant, Text: "four"},
	))

	msgs, err = history.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "two", msgs[0].Text)
	assert.Equal(t, "four", msgs[2].Text)
}

func TestChatHistoryClaim(t *testing.T) {
	_, client := newRedis(t)
	history := NewChatHistory(client, time.Hour, 10)
	ctx := context.Background()

	ok, err := history.Claim(ctx, "c1", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = history.Claim(ctx, "c1", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = history.Claim(ctx, "c1", "mallory")
	require.NoError(t, err)
	assert.False(t, ok)

	owner, err := history.Owner(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	_, err = history.Owner(ctx, "unknown")
	assert.ErrorIs(t, err, ErrMiss)
}
