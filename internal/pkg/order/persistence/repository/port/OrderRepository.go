package repository

import (
	"context"
	"errors"

	order "delovrukah-chat/internal/pkg/order/domain"
)

// ErrNotFound signals an absent row in a typed way so callers can separate
// "no such record" from transport errors.
var ErrNotFound = errors.New("order repository: not found")

// OrderRepository exposes the read-only order and profile lookups the chat
// subsystem needs. The relational shape is owned by the catalog/order module;
// this port only consumes it.
type OrderRepository interface {
	// CustomerProfileID resolves the customer profile owned by userID.
	// Returns ErrNotFound when the user has no customer profile.
	CustomerProfileID(ctx context.Context, userID string) (string, error)

	// ProviderProfileID resolves the provider profile owned by userID.
	// Returns ErrNotFound when the user has no provider profile.
	ProviderProfileID(ctx context.Context, userID string) (string, error)

	// OrderParticipants loads the participancy view of an order.
	// Returns ErrNotFound when the order does not exist.
	OrderParticipants(ctx context.Context, orderID string) (*order.Participants, error)

	// ParticipantUserIDs resolves the user ids behind all of the order's
	// participants (customer plus line-item providers), for notification
	// fan-out. Returns ErrNotFound when the order does not exist.
	ParticipantUserIDs(ctx context.Context, orderID string) ([]string, error)
}
