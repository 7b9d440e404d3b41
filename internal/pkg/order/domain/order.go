package order

import (
	"errors"
	"time"
)

// Role is the marketplace role carried in a verified identity claim.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// ErrOrderNotFound is the single outcome for every failed access check:
// missing order, missing profile, or caller not being a participant. The
// cases are deliberately indistinguishable so callers cannot enumerate
// orders they have no access to.
var ErrOrderNotFound = errors.New("order: not found")

// Participants is the read-only participancy view of an order: the owning
// customer profile plus every provider profile referenced by its line items.
type Participants struct {
	OrderID            string
	CustomerProfileID  string
	ProviderProfileIDs []string
	CreatedAt          time.Time
}

// HasProvider reports whether the given provider profile appears among the
// order's line items.
func (p *Participants) HasProvider(providerProfileID string) bool {
	if p == nil || providerProfileID == "" {
		return false
	}
	for _, id := range p.ProviderProfileIDs {
		if id == providerProfileID {
			return true
		}
	}
	return false
}
