package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "delovrukah-chat/internal/pkg/chat/domain"
	repository "delovrukah-chat/internal/pkg/chat/persistence/repository/port"
	order "delovrukah-chat/internal/pkg/order/domain"
)

// GetMessageInput carries parameters to fetch an order's chat history.
type GetMessageInput struct {
	OrderID string
	UserID  string
	Role    order.Role
	Limit   int
	Offset  int
}

// GetMessageUseCase fetches messages for an order, oldest first. The caller
// is authorized through the same collapsed not-found outcome as joins and
// sends.
type GetMessageUseCase struct {
	Repo   repository.MessageRepository
	Access OrderAccess
}

func NewGetMessageUseCase(repo repository.MessageRepository, access OrderAccess) *GetMessageUseCase {
	return &GetMessageUseCase{Repo: repo, Access: access}
}

// Execute returns messages for the order honoring limit/offset.
func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) ([]chat.Message, error) {
	if in.OrderID == "" {
		return nil, fmt.Errorf("orderId is required")
	}

	if err := uc.Access.Authorize(ctx, in.UserID, in.Role, in.OrderID); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	msgs, err := uc.Repo.GetMessagesByOrder(ctx, in.OrderID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
