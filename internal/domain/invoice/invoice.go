package invoice

import (
	"time"

	"github.com/facturas/backend/internal/domain/shared"
	"github.com/facturas/backend/internal/domain/shared/valueobject"
)

// DateLayout is the calendar date format used for the invoice date and
// the archive partition key.
const DateLayout = "2006-01-02"

// Status represents the lifecycle status of an invoice.
// Only "activa" is defined today; future states are deliberately open.
type Status string

const (
	// StatusActive is the status assigned to every newly created invoice
	StatusActive Status = "activa"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Fallback display values used when a dependency lookup fails under
// the lenient resolution policy. They match the record layout consumed
// by downstream reporting.
const (
	fallbackProductName = "Producto no disponible"
	fallbackUserName    = "Usuario no disponible"
	fallbackUserEmail   = "no-disponible@temp.com"
)

// LineItem is one product entry within an invoice. It is embedded in the
// invoice and not independently addressable. Price and name are snapshots
// taken at creation time, not live references.
type LineItem struct {
	ProductID   string
	ProductName string
	UnitPrice   valueobject.Money
	Quantity    int64
	Subtotal    valueobject.Money
	Available   bool
}

// NewLineItem creates a resolved line item. The subtotal is computed with
// exact decimal multiplication: unit price * quantity.
func NewLineItem(productID, productName string, unitPrice valueobject.Money, quantity int64) (LineItem, error) {
	if productID == "" {
		return LineItem{}, shared.NewValidationError("Product ID cannot be empty")
	}
	if quantity <= 0 {
		return LineItem{}, shared.NewValidationError("Quantity for product %s must be a positive integer", productID)
	}
	if unitPrice.IsNegative() {
		return LineItem{}, shared.NewValidationError("Unit price for product %s cannot be negative", productID)
	}
	if productName == "" {
		productName = "Producto"
	}
	return LineItem{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Subtotal:    unitPrice.MulInt(quantity),
		Available:   true,
	}, nil
}

// NewUnavailableLineItem creates a zero-priced placeholder line for a
// product that could not be resolved. It contributes nothing to the total.
func NewUnavailableLineItem(productID string, quantity int64) LineItem {
	return LineItem{
		ProductID:   productID,
		ProductName: fallbackProductName,
		UnitPrice:   valueobject.ZeroMoney(),
		Quantity:    quantity,
		Subtotal:    valueobject.ZeroMoney(),
		Available:   false,
	}
}

// UserSnapshot is a denormalized copy of the user data at invoice creation
// time. Available marks whether the snapshot is authoritative or a
// fallback placeholder. Address may be nil when the user service omitted
// it or its encoded form could not be decoded.
type UserSnapshot struct {
	UserID    string
	Name      string
	Email     string
	Phone     string
	Address   map[string]any
	Available bool
}

// NewFallbackUserSnapshot synthesizes a non-authoritative placeholder
// snapshot for a user the directory could not resolve.
func NewFallbackUserSnapshot(userID string) UserSnapshot {
	return UserSnapshot{
		UserID:    userID,
		Name:      fallbackUserName,
		Email:     fallbackUserEmail,
		Available: false,
	}
}

// Invoice is the persisted sale record, the aggregate root of this
// service. Identity is the composite (tenant_id, invoice_id); the invoice
// id is a random UUID assigned at creation and never reassigned.
type Invoice struct {
	shared.TenantEntity
	UserID           string
	User             UserSnapshot
	Lines            []LineItem
	Total            valueobject.Money
	Date             string
	Status           Status
	FailedProductIDs []string
}

// NewInvoice creates a new invoice for a tenant with an empty line set.
// date must be a calendar date in DateLayout; when empty it defaults to
// the creation timestamp's UTC date.
func NewInvoice(tenantID, userID string, user UserSnapshot, date string) (*Invoice, error) {
	if tenantID == "" {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	if userID == "" {
		return nil, shared.NewValidationError("User ID cannot be empty")
	}

	entity := shared.NewTenantEntity(tenantID)
	if date == "" {
		date = entity.CreatedAt.Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, shared.NewValidationError("Date must use the %s format", DateLayout)
	}

	return &Invoice{
		TenantEntity:     entity,
		UserID:           userID,
		User:             user,
		Lines:            make([]LineItem, 0),
		Total:            valueobject.ZeroMoney(),
		Date:             date,
		Status:           StatusActive,
		FailedProductIDs: make([]string, 0),
	}, nil
}

// AddLine appends a resolved line item and accumulates its subtotal into
// the total, preserving input order.
func (inv *Invoice) AddLine(item LineItem) {
	inv.Lines = append(inv.Lines, item)
	inv.Total = inv.Total.Add(item.Subtotal)
}

// AddFailedLine appends an unavailable placeholder line and records the
// product id in the failed set. The total is unchanged.
func (inv *Invoice) AddFailedLine(item LineItem) {
	inv.Lines = append(inv.Lines, item)
	inv.FailedProductIDs = append(inv.FailedProductIDs, item.ProductID)
}

// ReplacePurchase overwrites the line items and total as one partial
// update, stamping a new updated-at time. Concurrent updates silently
// overwrite each other; there is no concurrency token.
func (inv *Invoice) ReplacePurchase(lines []LineItem, total valueobject.Money) {
	inv.Lines = lines
	inv.Total = total
	inv.UpdatedAt = time.Now().UTC()
}

// ItemCount returns the number of line items
func (inv *Invoice) ItemCount() int {
	return len(inv.Lines)
}

// HasFailedProducts returns true when at least one product could not be
// resolved at creation time.
func (inv *Invoice) HasFailedProducts() bool {
	return len(inv.FailedProductIDs) > 0
}
