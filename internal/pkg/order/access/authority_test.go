package access

import (
	"context"
	"errors"
	"testing"

	order "delovrukah-chat/internal/pkg/order/domain"
	repository "delovrukah-chat/internal/pkg/order/persistence/repository/port"
)

type fakeOrderRepo struct {
	customerProfiles map[string]string // userID -> profileID
	providerProfiles map[string]string // userID -> profileID
	orders           map[string]*order.Participants
	err              error
}

func (f *fakeOrderRepo) CustomerProfileID(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.customerProfiles[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return id, nil
}

func (f *fakeOrderRepo) ProviderProfileID(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.providerProfiles[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return id, nil
}

func (f *fakeOrderRepo) OrderParticipants(_ context.Context, orderID string) (*order.Participants, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeOrderRepo) ParticipantUserIDs(_ context.Context, orderID string) ([]string, error) {
	return nil, repository.ErrNotFound
}

func newFakeRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		customerProfiles: map[string]string{"alice": "cp-alice"},
		providerProfiles: map[string]string{"bob": "pp-bob", "eve": "pp-eve"},
		orders: map[string]*order.Participants{
			"order-1": {
				OrderID:            "order-1",
				CustomerProfileID:  "cp-alice",
				ProviderProfileIDs: []string{"pp-bob"},
			},
		},
	}
}

func TestAuthority_GrantsParticipants(t *testing.T) {
	a := NewAuthority(newFakeRepo())
	ctx := context.Background()

	if err := a.Authorize(ctx, "alice", order.RoleCustomer, "order-1"); err != nil {
		t.Errorf("customer participant: Authorize() = %v, want nil", err)
	}
	if err := a.Authorize(ctx, "bob", order.RoleProvider, "order-1"); err != nil {
		t.Errorf("provider participant: Authorize() = %v, want nil", err)
	}
}

func TestAuthority_AllDenialsCollapseToNotFound(t *testing.T) {
	a := NewAuthority(newFakeRepo())
	ctx := context.Background()

	cases := []struct {
		name    string
		userID  string
		role    order.Role
		orderID string
	}{
		{"order does not exist", "alice", order.RoleCustomer, "order-999"},
		{"provider not on line items", "eve", order.RoleProvider, "order-1"},
		{"customer does not own order", "alice", order.RoleProvider, "order-1"},
		{"no customer profile", "bob", order.RoleCustomer, "order-1"},
		{"no provider profile", "alice", order.RoleProvider, "order-1"},
		{"admin role", "alice", order.RoleAdmin, "order-1"},
		{"unknown role", "alice", order.Role("MODERATOR"), "order-1"},
		{"empty user", "", order.RoleCustomer, "order-1"},
		{"empty order", "alice", order.RoleCustomer, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.Authorize(ctx, tc.userID, tc.role, tc.orderID)
			if !errors.Is(err, order.ErrOrderNotFound) {
				t.Errorf("Authorize() = %v, want ErrOrderNotFound", err)
			}
		})
	}
}

func TestAuthority_StorageErrorIsNotConflated(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	a := NewAuthority(repo)

	err := a.Authorize(context.Background(), "alice", order.RoleCustomer, "order-1")
	if err == nil {
		t.Fatal("Authorize() = nil, want error")
	}
	if errors.Is(err, order.ErrOrderNotFound) {
		t.Error("storage error must not be presented as not-found")
	}
}
