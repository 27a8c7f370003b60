package invoice

import (
	"context"

	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared"
	"github.com/facturas/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Directory lookup outcomes. NotFound is a well-formed "no such entity"
// answer from the dependency; Unavailable covers timeouts, connection
// failures and non-success status codes and indicates a dependency
// outage rather than a data-absence fact.
var (
	ErrDirectoryNotFound    = shared.NewDomainError("DIRECTORY_NOT_FOUND", "Entity not found in directory")
	ErrDirectoryUnavailable = shared.NewDomainError("DIRECTORY_UNAVAILABLE", "Directory service unavailable")
)

// ProductSnapshot is the product data captured from the product lookup
// service at invoice creation time.
type ProductSnapshot struct {
	ProductID string
	Name      string
	Price     valueobject.Money
}

// DirectoryGateway is the outbound port for the two external lookup
// services. Each call issues one bounded-timeout request; failures are
// reported as ErrDirectoryNotFound or ErrDirectoryUnavailable and are
// never retried here.
type DirectoryGateway interface {
	FetchUser(ctx context.Context, tenantID, userID string) (*invoice.UserSnapshot, error)
	FetchProduct(ctx context.Context, tenantID, productID string) (*ProductSnapshot, error)
}

// ArchiveStore is the outbound port for the archival blob store. Archive
// writes the full invoice record under a tenant/date-partitioned key and
// returns the partition location the blob was stored under.
type ArchiveStore interface {
	Archive(ctx context.Context, inv *invoice.Invoice, payload []byte) (location string, err error)
}

// PartitionCatalog registers tenant/date partitions with their archival
// location. EnsurePartition is idempotent: registering a partition that
// already exists, including losing a create race, is a success.
type PartitionCatalog interface {
	EnsurePartition(ctx context.Context, tenantID, date, location string) error
}

// TaskNotifier signals a downstream consumer (repair / indexing job)
// that an invoice was created. Implementations are fire-and-forget from
// the caller's perspective; an error return is logged and swallowed.
type TaskNotifier interface {
	InvoiceCreated(ctx context.Context, tenantID string, invoiceID uuid.UUID) error
}
