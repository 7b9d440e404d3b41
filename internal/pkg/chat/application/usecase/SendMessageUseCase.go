package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "delovrukah-chat/internal/pkg/chat/domain"
	repository "delovrukah-chat/internal/pkg/chat/persistence/repository/port"
	order "delovrukah-chat/internal/pkg/order/domain"
)

// SendMessageInput carries the data needed to send a new message.
type SendMessageInput struct {
	OrderID  string
	SenderID string
	Role     order.Role
	Text     string
}

// SendMessageUseCase validates, re-authorizes and persists one message.
// Authorization runs on every send, independent of any earlier room join:
// a participancy change committed between two messages takes effect on the
// next send, never later.
type SendMessageUseCase struct {
	Repo   repository.MessageRepository
	Access OrderAccess
}

func NewSendMessageUseCase(repo repository.MessageRepository, access OrderAccess) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Access: access}
}

// Execute persists a new message for an order and returns it with
// storage-assigned id and timestamps.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(in.OrderID, in.SenderID, in.Text)
	if err != nil {
		return nil, err
	}

	if err := uc.Access.Authorize(ctx, in.SenderID, in.Role, in.OrderID); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	saved, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &saved, nil
}
