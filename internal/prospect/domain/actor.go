package domain

import "github.com/google/uuid"

// Actor is the authenticated member performing an operation.
type Actor struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	IsManager bool
}

// CanActOn reports whether the actor may change lead: managers may change
// any lead of their company, salespeople only their own.
func (a Actor) CanActOn(lead Lead) bool {
	if lead.TenantID != a.TenantID {
		return false
	}
	return a.IsManager || lead.SalespersonID == a.ID
}
