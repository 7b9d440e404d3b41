package chat

import (
	"errors"
	"strings"
	"time"
)

// Domain-level errors for chat behaviors
var (
	ErrEmptyMessage = errors.New("chat: message text is required")
	ErrNoOrder      = errors.New("chat: order id is required")
	ErrNoSender     = errors.New("chat: sender id is required")
)

// Message is an immutable log entry in an order's chat. It is created exactly
// once at send time; there are no edit or delete operations. The set of
// messages for an order is totally ordered by CreatedAt, ties broken by
// insertion order.
type Message struct {
	ID        string    `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"orderId"`
	SenderID  string    `db:"sender_id" json:"senderId"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewMessage validates and normalizes a message before persistence. Text is
// trimmed; whitespace-only text is rejected.
func NewMessage(orderID, senderID, text string) (*Message, error) {
	if orderID == "" {
		return nil, ErrNoOrder
	}
	if senderID == "" {
		return nil, ErrNoSender
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	return &Message{
		OrderID:  orderID,
		SenderID: senderID,
		Text:     trimmed,
	}, nil
}

// RoomName derives the deterministic room key for an order's chat.
func RoomName(orderID string) string {
	return "order-" + orderID
}
