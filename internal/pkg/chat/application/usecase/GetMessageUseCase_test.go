package usecase

import (
	"context"
	"errors"
	"testing"

	order "delovrukah-chat/internal/pkg/order/domain"
)

func TestGetMessage_AuthorizedReadReturnsHistory(t *testing.T) {
	repo := &fakeMessageRepo{}
	send := NewSendMessageUseCase(repo, allow("alice|order-1"))
	for _, text := range []string{"first", "second"} {
		if _, err := send.Execute(context.Background(), SendMessageInput{
			OrderID: "order-1", SenderID: "alice", Role: order.RoleCustomer, Text: text,
		}); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	uc := NewGetMessageUseCase(repo, allow("alice|order-1"))
	msgs, err := uc.Execute(context.Background(), GetMessageInput{
		OrderID: "order-1", UserID: "alice", Role: order.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Text != "first" || msgs[1].Text != "second" {
		t.Errorf("history out of order: %q, %q", msgs[0].Text, msgs[1].Text)
	}
}

func TestGetMessage_NonParticipantGetsNotFound(t *testing.T) {
	uc := NewGetMessageUseCase(&fakeMessageRepo{}, allow())
	_, err := uc.Execute(context.Background(), GetMessageInput{
		OrderID: "order-1", UserID: "eve", Role: order.RoleProvider,
	})
	if !errors.Is(err, order.ErrOrderNotFound) {
		t.Errorf("Execute() = %v, want ErrOrderNotFound", err)
	}
}
