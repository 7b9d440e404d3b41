package usecase

import (
	"context"
	"errors"
	"fmt"

	order "delovrukah-chat/internal/pkg/order/domain"
)

// JoinOrderInput validates a request to attach a connection to an order room.
type JoinOrderInput struct {
	OrderID string
	UserID  string
	Role    order.Role
}

// JoinOrderUseCase ensures the user is a participant of the order before the
// gateway joins the realtime room. The check is re-run on every join; it is
// never cached for the lifetime of a connection.
type JoinOrderUseCase struct {
	Access OrderAccess
}

func NewJoinOrderUseCase(access OrderAccess) *JoinOrderUseCase {
	return &JoinOrderUseCase{Access: access}
}

func (uc *JoinOrderUseCase) Execute(ctx context.Context, in JoinOrderInput) error {
	if in.OrderID == "" || in.UserID == "" {
		return fmt.Errorf("order_id and user_id are required")
	}

	if err := uc.Access.Authorize(ctx, in.UserID, in.Role, in.OrderID); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
