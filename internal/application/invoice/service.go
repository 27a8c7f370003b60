package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolutionPolicy governs how a dependency lookup failure during
// invoice assembly is handled.
type ResolutionPolicy string

const (
	// PolicyLenient substitutes fallback placeholders for unresolved
	// users and products so the invoice is still created.
	PolicyLenient ResolutionPolicy = "lenient"
	// PolicyStrict rejects the creation request when any lookup fails.
	PolicyStrict ResolutionPolicy = "strict"
)

// ParseResolutionPolicy validates a configured policy name
func ParseResolutionPolicy(s string) (ResolutionPolicy, error) {
	switch ResolutionPolicy(s) {
	case PolicyLenient, PolicyStrict:
		return ResolutionPolicy(s), nil
	case "":
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("unknown resolution policy %q (want lenient or strict)", s)
	}
}

// MaxListLimit caps the page size a caller may request
const MaxListLimit = 100

// InvoiceService assembles, stores and serves invoices. Creation
// enriches the caller's product references through the directory
// gateway; all other operations go straight to the primary store.
type InvoiceService struct {
	repo        invoice.InvoiceRepository
	directory   DirectoryGateway
	coordinator *Coordinator
	policy      ResolutionPolicy
	logger      *zap.Logger
}

// NewInvoiceService creates the invoice application service
func NewInvoiceService(
	repo invoice.InvoiceRepository,
	directory DirectoryGateway,
	coordinator *Coordinator,
	policy ResolutionPolicy,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = PolicyLenient
	}
	return &InvoiceService{
		repo:        repo,
		directory:   directory,
		coordinator: coordinator,
		policy:      policy,
		logger:      logger,
	}
}

// Create assembles and stores a new invoice. The user is resolved once,
// then each requested product is resolved in input order; line totals
// use exact decimal arithmetic throughout. Under the lenient policy a
// failed lookup degrades to a placeholder, under the strict policy it
// aborts the request.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceRecord, error) {
	if req.TenantID == "" {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	if req.UserID == "" {
		return nil, shared.NewValidationError("User ID cannot be empty")
	}
	if len(req.Products) == 0 {
		return nil, shared.NewValidationError("Invoice must contain at least one product")
	}

	// validate the whole product list before any lookup is issued
	quantities := make([]int64, len(req.Products))
	for i, p := range req.Products {
		if p.ProductID == "" {
			return nil, shared.NewValidationError("Product ID cannot be empty")
		}
		qty := int64(1)
		if p.Quantity != nil {
			qty = *p.Quantity
		}
		if qty <= 0 {
			return nil, shared.NewValidationError("Quantity for product %s must be a positive integer", p.ProductID)
		}
		quantities[i] = qty
	}

	user, err := s.resolveUser(ctx, req.TenantID, req.UserID)
	if err != nil {
		return nil, err
	}

	inv, err := invoice.NewInvoice(req.TenantID, req.UserID, user, req.Date)
	if err != nil {
		return nil, err
	}

	for i, p := range req.Products {
		if err := s.resolveLine(ctx, inv, p.ProductID, quantities[i]); err != nil {
			return nil, err
		}
	}

	record := ToInvoiceRecord(inv)
	if err := s.coordinator.StoreNew(ctx, inv, record); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("tenant_id", inv.TenantID),
		zap.String("invoice_id", inv.ID.String()),
		zap.Int("products", inv.ItemCount()),
		zap.Int("unresolved", len(inv.FailedProductIDs)),
		zap.String("total", inv.Total.String()))

	return &record, nil
}

func (s *InvoiceService) resolveUser(ctx context.Context, tenantID, userID string) (invoice.UserSnapshot, error) {
	snapshot, err := s.directory.FetchUser(ctx, tenantID, userID)
	if err == nil {
		return *snapshot, nil
	}

	if s.policy == PolicyStrict {
		// an outage is indistinguishable from a miss for the caller:
		// strict mode refuses to invent data either way
		if errors.Is(err, ErrDirectoryNotFound) {
			return invoice.UserSnapshot{}, shared.NewNotFoundError("User %s not found", userID)
		}
		return invoice.UserSnapshot{}, shared.NewNotFoundError("Could not resolve user %s", userID)
	}

	s.logger.Warn("user lookup failed, using fallback data",
		zap.String("tenant_id", tenantID),
		zap.String("usuario_id", userID),
		zap.Error(err))
	return invoice.NewFallbackUserSnapshot(userID), nil
}

func (s *InvoiceService) resolveLine(ctx context.Context, inv *invoice.Invoice, productID string, quantity int64) error {
	product, err := s.directory.FetchProduct(ctx, inv.TenantID, productID)
	if err != nil {
		if s.policy == PolicyStrict {
			if errors.Is(err, ErrDirectoryNotFound) {
				return shared.NewNotFoundError("Product %s not found", productID)
			}
			return shared.NewNotFoundError("Could not resolve product %s", productID)
		}

		s.logger.Warn("product lookup failed, recording unavailable line",
			zap.String("tenant_id", inv.TenantID),
			zap.String("producto_id", productID),
			zap.Error(err))
		inv.AddFailedLine(invoice.NewUnavailableLineItem(productID, quantity))
		return nil
	}

	line, err := invoice.NewLineItem(product.ProductID, product.Name, product.Price, quantity)
	if err != nil {
		return err
	}
	inv.AddLine(line)
	return nil
}

// GetByID returns one invoice or a not-found error
func (s *InvoiceService) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*InvoiceRecord, error) {
	if tenantID == "" {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}
	record := ToInvoiceRecord(inv)
	return &record, nil
}

// UpdatePurchase replaces the line items and total of an existing
// invoice. The lines are stored as supplied; no directory re-resolution
// happens on update. Updating an absent invoice is a not-found error.
func (s *InvoiceService) UpdatePurchase(ctx context.Context, tenantID string, id uuid.UUID, req UpdatePurchaseRequest) (*InvoiceRecord, error) {
	if tenantID == "" {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("Purchase must contain at least one product")
	}

	lines := make([]invoice.LineItem, 0, len(req.Lines))
	for _, in := range req.Lines {
		if in.ProductID == "" {
			return nil, shared.NewValidationError("Product ID cannot be empty")
		}
		if in.Quantity <= 0 {
			return nil, shared.NewValidationError("Quantity for product %s must be a positive integer", in.ProductID)
		}
		name := in.Name
		if name == "" {
			name = "Producto"
		}
		lines = append(lines, invoice.LineItem{
			ProductID:   in.ProductID,
			ProductName: name,
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
			Subtotal:    in.Subtotal,
			Available:   in.Available,
		})
	}

	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	inv.ReplacePurchase(lines, req.Total)
	if err := s.repo.Update(ctx, inv); err != nil {
		s.logger.Error("failed to update invoice",
			zap.String("tenant_id", tenantID),
			zap.String("invoice_id", id.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update invoice")
	}

	s.logger.Info("invoice updated",
		zap.String("tenant_id", tenantID),
		zap.String("invoice_id", id.String()),
		zap.Int("products", inv.ItemCount()))

	record := ToInvoiceRecord(inv)
	return &record, nil
}

// Delete removes one invoice after confirming it exists, so a stale id
// yields a not-found error rather than a silent success.
func (s *InvoiceService) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	if tenantID == "" {
		return shared.NewValidationError("Tenant ID cannot be empty")
	}
	if _, err := s.repo.FindByID(ctx, tenantID, id); err != nil {
		return s.mapLookupError(err, id)
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		s.logger.Error("failed to delete invoice",
			zap.String("tenant_id", tenantID),
			zap.String("invoice_id", id.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete invoice")
	}

	s.logger.Info("invoice deleted",
		zap.String("tenant_id", tenantID),
		zap.String("invoice_id", id.String()))
	return nil
}

// List returns a tenant's invoices, optionally filtered by user id. The
// limit defaults to and is capped at sensible bounds; an empty result is
// a successful empty list.
func (s *InvoiceService) List(ctx context.Context, tenantID string, filter invoice.ListFilter) ([]InvoiceRecord, error) {
	if tenantID == "" {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	if filter.Limit <= 0 {
		filter.Limit = invoice.DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}

	invoices, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		s.logger.Error("failed to list invoices",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list invoices")
	}
	return ToInvoiceRecords(invoices), nil
}

func (s *InvoiceService) mapLookupError(err error, id uuid.UUID) error {
	var domainErr *shared.DomainError
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Invoice %s not found", id)
	}
	if errors.As(err, &domainErr) {
		return domainErr
	}
	s.logger.Error("invoice lookup failed", zap.String("invoice_id", id.String()), zap.Error(err))
	return shared.NewDomainError("INTERNAL_ERROR", "Failed to load invoice")
}
