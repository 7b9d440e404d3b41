package access

import (
	"context"
	"errors"
	"fmt"

	order "delovrukah-chat/internal/pkg/order/domain"
	repository "delovrukah-chat/internal/pkg/order/persistence/repository/port"
)

// Authority decides whether an identity may read/write an order's chat.
// Every negative outcome (absent profile, absent order, caller not a
// participant, foreign role) collapses to order.ErrOrderNotFound. The
// decision is never cached: callers re-run it on every join and every send,
// so a participancy change committed between two requests takes effect
// immediately.
type Authority struct {
	Repo repository.OrderRepository
}

func NewAuthority(repo repository.OrderRepository) *Authority {
	return &Authority{Repo: repo}
}

// Authorize checks that the user behind (userID, role) is a participant of
// orderID. A nil return means access is granted. Storage failures are
// returned wrapped so callers can map them to an internal error instead of
// the not-found outcome.
func (a *Authority) Authorize(ctx context.Context, userID string, role order.Role, orderID string) error {
	if userID == "" || orderID == "" {
		return order.ErrOrderNotFound
	}

	switch role {
	case order.RoleCustomer:
		profileID, err := a.Repo.CustomerProfileID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return order.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("order access: resolve customer profile: %w", err)
		}
		participants, err := a.loadParticipants(ctx, orderID)
		if err != nil {
			return err
		}
		if participants.CustomerProfileID != profileID {
			return order.ErrOrderNotFound
		}
		return nil

	case order.RoleProvider:
		profileID, err := a.Repo.ProviderProfileID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return order.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("order access: resolve provider profile: %w", err)
		}
		participants, err := a.loadParticipants(ctx, orderID)
		if err != nil {
			return err
		}
		if !participants.HasProvider(profileID) {
			return order.ErrOrderNotFound
		}
		return nil

	default:
		// Admins and unknown roles are not chat participants.
		return order.ErrOrderNotFound
	}
}

func (a *Authority) loadParticipants(ctx context.Context, orderID string) (*order.Participants, error) {
	participants, err := a.Repo.OrderParticipants(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order access: load order: %w", err)
	}
	return participants, nil
}
