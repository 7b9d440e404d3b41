package usecase

import (
	"context"
	"fmt"

	order "delovrukah-chat/internal/pkg/order/domain"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use
// case. It is not retried here; retries are a client responsibility.
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// OrderAccess is the authorization dependency of the chat use cases. A nil
// return grants access; order.ErrOrderNotFound denies it without revealing
// whether the order exists.
type OrderAccess interface {
	Authorize(ctx context.Context, userID string, role order.Role, orderID string) error
}
