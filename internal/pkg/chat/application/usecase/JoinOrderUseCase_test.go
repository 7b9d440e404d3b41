package usecase

import (
	"context"
	"errors"
	"testing"

	order "delovrukah-chat/internal/pkg/order/domain"
)

func TestJoinOrder_ParticipantMayJoin(t *testing.T) {
	uc := NewJoinOrderUseCase(allow("alice|order-1"))
	err := uc.Execute(context.Background(), JoinOrderInput{
		OrderID: "order-1", UserID: "alice", Role: order.RoleCustomer,
	})
	if err != nil {
		t.Errorf("Execute() = %v, want nil", err)
	}
}

func TestJoinOrder_NonParticipantGetsNotFound(t *testing.T) {
	uc := NewJoinOrderUseCase(allow())
	err := uc.Execute(context.Background(), JoinOrderInput{
		OrderID: "order-1", UserID: "bob", Role: order.RoleProvider,
	})
	if !errors.Is(err, order.ErrOrderNotFound) {
		t.Errorf("Execute() = %v, want ErrOrderNotFound", err)
	}
}

func TestJoinOrder_MissingOrderIDIsRejectedBeforeAuthorization(t *testing.T) {
	access := allow("alice|order-1")
	uc := NewJoinOrderUseCase(access)
	if err := uc.Execute(context.Background(), JoinOrderInput{UserID: "alice"}); err == nil {
		t.Error("Execute() = nil, want validation error")
	}
	if access.calls != 0 {
		t.Errorf("authorization ran %d times, want 0", access.calls)
	}
}
