package adapter

import (
	"context"
	"encoding/json"
	"time"

	cacheport "delovrukah-chat/internal/infrastructure/cache/port"
	chat "delovrukah-chat/internal/pkg/chat/domain"
	repository "delovrukah-chat/internal/pkg/chat/persistence/repository/port"
)

const (
	historyCachePrefix = "chat:history:"
	historyCacheTTL    = 30 * time.Second

	// Only the storefront's initial page is cached; deeper pages go straight
	// to storage.
	historyDefaultLimit = 50
)

// CachedMessageRepository decorates a MessageRepository with a short-lived
// read cache for the first history page, invalidated on every append.
// Authorization is never cached here, only already-authorized reads are.
type CachedMessageRepository struct {
	inner repository.MessageRepository
	cache cacheport.Cache
}

func NewCachedMessageRepository(inner repository.MessageRepository, cache cacheport.Cache) *CachedMessageRepository {
	return &CachedMessageRepository{inner: inner, cache: cache}
}

var _ repository.MessageRepository = (*CachedMessageRepository)(nil)

func (r *CachedMessageRepository) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	saved, err := r.inner.SaveMessage(ctx, m)
	if err != nil {
		return chat.Message{}, err
	}
	// Best-effort invalidation; a stale entry expires on its own TTL anyway.
	_, _ = r.cache.Del(ctx, historyKey(saved.OrderID))
	return saved, nil
}

func (r *CachedMessageRepository) GetMessagesByOrder(ctx context.Context, orderID string, limit int, offset int) ([]chat.Message, error) {
	// Misses and cache transport errors alike fall through to storage.
	cacheable := (limit <= 0 || limit == historyDefaultLimit) && offset == 0
	if cacheable {
		if cached, err := r.cache.Get(ctx, historyKey(orderID)); err == nil {
			var msgs []chat.Message
			if json.Unmarshal([]byte(cached), &msgs) == nil {
				return msgs, nil
			}
		}
	}

	msgs, err := r.inner.GetMessagesByOrder(ctx, orderID, limit, offset)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if b, err := json.Marshal(msgs); err == nil {
			_ = r.cache.Set(ctx, historyKey(orderID), string(b), historyCacheTTL)
		}
	}
	return msgs, nil
}

func historyKey(orderID string) string {
	return historyCachePrefix + orderID
}
