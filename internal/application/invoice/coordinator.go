package invoice

import (
	"context"
	"encoding/json"

	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Coordinator fans a newly assembled invoice out to its write targets.
// Only the primary store is load-bearing: if it fails the invoice does
// not exist and the caller gets an error. The archive, the partition
// catalog and the downstream notification are best effort; their
// failures are logged and never surface to the caller.
type Coordinator struct {
	repo     invoice.InvoiceRepository
	archive  ArchiveStore
	catalog  PartitionCatalog
	notifier TaskNotifier
	logger   *zap.Logger
}

// NewCoordinator creates a write coordinator. archive, catalog and
// notifier may be nil when the corresponding target is disabled.
func NewCoordinator(
	repo invoice.InvoiceRepository,
	archive ArchiveStore,
	catalog PartitionCatalog,
	notifier TaskNotifier,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		repo:     repo,
		archive:  archive,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
	}
}

// StoreNew persists the invoice and propagates it to the best-effort
// targets. The catalog registration only runs after a successful archive
// write, since it records where the blob landed.
func (c *Coordinator) StoreNew(ctx context.Context, inv *invoice.Invoice, record InvoiceRecord) error {
	if err := c.repo.Save(ctx, inv); err != nil {
		c.logger.Error("failed to persist invoice",
			zap.String("tenant_id", inv.TenantID),
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to persist invoice")
	}

	if c.archive != nil {
		c.archiveInvoice(ctx, inv, record)
	}

	if c.notifier != nil {
		// detach from the request lifetime so an early client disconnect
		// does not cancel the notification
		notifyCtx := context.WithoutCancel(ctx)
		go func() {
			if err := c.notifier.InvoiceCreated(notifyCtx, inv.TenantID, inv.ID); err != nil {
				c.logger.Warn("invoice created notification failed",
					zap.String("tenant_id", inv.TenantID),
					zap.String("invoice_id", inv.ID.String()),
					zap.Error(err))
			}
		}()
	}

	return nil
}

func (c *Coordinator) archiveInvoice(ctx context.Context, inv *invoice.Invoice, record InvoiceRecord) {
	payload, err := json.Marshal(record)
	if err != nil {
		c.logger.Error("failed to encode invoice for archival",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err))
		return
	}

	location, err := c.archive.Archive(ctx, inv, payload)
	if err != nil {
		c.logger.Warn("invoice archival failed",
			zap.String("tenant_id", inv.TenantID),
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err))
		return
	}

	if c.catalog == nil {
		return
	}
	if err := c.catalog.EnsurePartition(ctx, inv.TenantID, inv.Date, location); err != nil {
		c.logger.Warn("partition registration failed",
			zap.String("tenant_id", inv.TenantID),
			zap.String("date", inv.Date),
			zap.Error(err))
	}
}
