package repository

import (
	"context"

	chat "delovrukah-chat/internal/pkg/chat/domain"
)

// MessageRepository defines the append-only persistence contract for order
// chat messages. There are no update or delete operations.
type MessageRepository interface {
	// SaveMessage appends m and returns it with the storage-assigned id and
	// timestamps filled in.
	SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error)

	// GetMessagesByOrder lists messages for an order oldest first
	// (created_at ascending, id as a stable tiebreak).
	GetMessagesByOrder(ctx context.Context, orderID string, limit int, offset int) ([]chat.Message, error)
}
