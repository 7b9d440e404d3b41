package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	cacheport "delovrukah-chat/internal/infrastructure/cache/port"
	chat "delovrukah-chat/internal/pkg/chat/domain"
)

type memCache struct {
	values map[string]string
	getErr error
	sets   int
	dels   int
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string)}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.sets++
	c.values[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := c.values[k]; ok {
			delete(c.values, k)
			n++
		}
	}
	c.dels++
	return n, nil
}

func (c *memCache) Ping(context.Context) error { return nil }
func (c *memCache) Close() error               { return nil }

type stubMessageRepo struct {
	messages []chat.Message
	reads    int
}

func (s *stubMessageRepo) SaveMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	m.ID = "msg-1"
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *stubMessageRepo) GetMessagesByOrder(_ context.Context, orderID string, _, _ int) ([]chat.Message, error) {
	s.reads++
	var out []chat.Message
	for _, m := range s.messages {
		if m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestCachedRepo_FirstPageReadThrough(t *testing.T) {
	inner := &stubMessageRepo{messages: []chat.Message{{ID: "m1", OrderID: "order-1", SenderID: "alice", Text: "hi"}}}
	cache := newMemCache()
	repo := NewCachedMessageRepository(inner, cache)
	ctx := context.Background()

	first, err := repo.GetMessagesByOrder(ctx, "order-1", 0, 0)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := repo.GetMessagesByOrder(ctx, "order-1", 0, 0)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if inner.reads != 1 {
		t.Errorf("storage reads = %d, want 1 (second read served from cache)", inner.reads)
	}
	if len(first) != 1 || len(second) != 1 || second[0].Text != "hi" {
		t.Errorf("cached read differs from storage read: %+v vs %+v", first, second)
	}
}

func TestCachedRepo_SaveInvalidatesHistory(t *testing.T) {
	inner := &stubMessageRepo{}
	cache := newMemCache()
	repo := NewCachedMessageRepository(inner, cache)
	ctx := context.Background()

	if _, err := repo.GetMessagesByOrder(ctx, "order-1", 0, 0); err != nil {
		t.Fatalf("warm read: %v", err)
	}
	if _, err := repo.SaveMessage(ctx, chat.Message{OrderID: "order-1", SenderID: "alice", Text: "new"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	msgs, err := repo.GetMessagesByOrder(ctx, "order-1", 0, 0)
	if err != nil {
		t.Fatalf("read after save: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "new" {
		t.Errorf("read after save = %+v, want the appended message", msgs)
	}
	if inner.reads != 2 {
		t.Errorf("storage reads = %d, want 2 (cache invalidated by save)", inner.reads)
	}
}

func TestCachedRepo_DeepPagesBypassCache(t *testing.T) {
	inner := &stubMessageRepo{}
	cache := newMemCache()
	repo := NewCachedMessageRepository(inner, cache)
	ctx := context.Background()

	if _, err := repo.GetMessagesByOrder(ctx, "order-1", 20, 40); err != nil {
		t.Fatalf("read: %v", err)
	}
	if cache.sets != 0 {
		t.Errorf("cache writes = %d, want 0 for non-default page", cache.sets)
	}
}

func TestCachedRepo_CacheTransportErrorFallsThrough(t *testing.T) {
	inner := &stubMessageRepo{messages: []chat.Message{{ID: "m1", OrderID: "order-1", SenderID: "alice", Text: "hi"}}}
	cache := newMemCache()
	cache.getErr = errors.New("connection refused")
	repo := NewCachedMessageRepository(inner, cache)

	msgs, err := repo.GetMessagesByOrder(context.Background(), "order-1", 0, 0)
	if err != nil {
		t.Fatalf("read with broken cache: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("len(msgs) = %d, want 1 from storage", len(msgs))
	}
}
