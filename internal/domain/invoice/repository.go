package invoice

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter holds the query options for listing a tenant's invoices.
// Skip is accepted by the request shim for compatibility but is not used
// by the query; only Limit caps the result set.
type ListFilter struct {
	UserID *string
	Limit  int
	Skip   int
}

// DefaultListLimit caps a listing when the caller does not provide one
const DefaultListLimit = 10

// InvoiceRepository is the persistence port for the primary keyed store.
// Every operation is scoped to a tenant; a lookup miss is reported as
// shared.ErrNotFound, never as an empty success.
type InvoiceRepository interface {
	// Save persists a newly assembled invoice
	Save(ctx context.Context, inv *Invoice) error

	// FindByID looks up one invoice by its composite identity
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*Invoice, error)

	// Update overwrites the mutable fields of an existing invoice
	Update(ctx context.Context, inv *Invoice) error

	// Delete removes one invoice; deleting an absent id is an error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error

	// FindAllForTenant lists a tenant's invoices, optionally filtered by
	// user id, capped by the filter limit, newest first
	FindAllForTenant(ctx context.Context, tenantID string, filter ListFilter) ([]Invoice, error)
}
