package invoice

import (
	"time"

	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared/valueobject"
)

// ProductInput is one requested product in a create request. Quantity is
// a pointer so an omitted quantity (defaults to 1) can be told apart from
// an explicit zero, which is rejected.
type ProductInput struct {
	ProductID string
	Quantity  *int64
}

// CreateInvoiceRequest carries the caller's input for invoice creation.
// TenantID travels separately because it is bound from the request
// envelope, not the product list.
type CreateInvoiceRequest struct {
	TenantID string
	UserID   string
	Date     string
	Products []ProductInput
}

// PurchaseLineInput is one line item supplied verbatim on update. Unlike
// creation, update does not re-resolve products; the caller's prices and
// subtotals are stored as given.
type PurchaseLineInput struct {
	ProductID string
	Name      string
	UnitPrice valueobject.Money
	Quantity  int64
	Subtotal  valueobject.Money
	Available bool
}

// UpdatePurchaseRequest replaces the purchase contents of an invoice:
// the full line set and the total, nothing else.
type UpdatePurchaseRequest struct {
	Lines []PurchaseLineInput
	Total valueobject.Money
}

// LineItemRecord is the canonical wire form of a line item. The JSON
// field names are fixed by the downstream consumers of the archive and
// must not change.
type LineItemRecord struct {
	ProductID string            `json:"id_prod"`
	Name      string            `json:"nombre"`
	UnitPrice valueobject.Money `json:"precio_unitario"`
	Quantity  int64             `json:"cantidad"`
	Subtotal  valueobject.Money `json:"subtotal"`
	Available bool              `json:"disponible"`
}

// UserInfoRecord is the canonical wire form of the denormalized user
// snapshot. Address is emitted as null when no decodable address was
// captured.
type UserInfoRecord struct {
	UserID    string         `json:"id,omitempty"`
	Name      string         `json:"nombre"`
	Email     string         `json:"email"`
	Phone     string         `json:"telefono,omitempty"`
	Address   map[string]any `json:"direccion"`
	Available bool           `json:"disponible"`
}

// InvoiceRecord is the canonical wire form of an invoice. The same shape
// is returned by the API, written to the archive blob and stored in the
// document columns of the primary store.
type InvoiceRecord struct {
	TenantID         string            `json:"tenant_id"`
	InvoiceID        string            `json:"factura_id"`
	UserID           string            `json:"usuario_id"`
	Products         []LineItemRecord  `json:"productos"`
	Total            valueobject.Money `json:"total"`
	UserInfo         UserInfoRecord    `json:"usuario_info"`
	Date             string            `json:"fecha"`
	CreatedAt        string            `json:"fecha_creacion"`
	UpdatedAt        string            `json:"fecha_actualizacion,omitempty"`
	Status           string            `json:"estado"`
	FailedProductIDs []string          `json:"productos_fallidos"`
}

// ToInvoiceRecord converts the aggregate into its wire form. Timestamps
// are rendered in RFC 3339 UTC; the update timestamp is omitted until the
// invoice has actually been updated.
func ToInvoiceRecord(inv *invoice.Invoice) InvoiceRecord {
	products := make([]LineItemRecord, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		products = append(products, LineItemRecord{
			ProductID: line.ProductID,
			Name:      line.ProductName,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal,
			Available: line.Available,
		})
	}

	record := InvoiceRecord{
		TenantID:  inv.TenantID,
		InvoiceID: inv.ID.String(),
		UserID:    inv.UserID,
		Products:  products,
		Total:     inv.Total,
		UserInfo: UserInfoRecord{
			UserID:    inv.User.UserID,
			Name:      inv.User.Name,
			Email:     inv.User.Email,
			Phone:     inv.User.Phone,
			Address:   inv.User.Address,
			Available: inv.User.Available,
		},
		Date:             inv.Date,
		CreatedAt:        inv.CreatedAt.UTC().Format(time.RFC3339),
		Status:           inv.Status.String(),
		FailedProductIDs: inv.FailedProductIDs,
	}
	if inv.UpdatedAt.After(inv.CreatedAt) {
		record.UpdatedAt = inv.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if record.FailedProductIDs == nil {
		record.FailedProductIDs = make([]string, 0)
	}
	return record
}

// ToInvoiceRecords converts a listing result
func ToInvoiceRecords(invoices []invoice.Invoice) []InvoiceRecord {
	records := make([]InvoiceRecord, 0, len(invoices))
	for i := range invoices {
		records = append(records, ToInvoiceRecord(&invoices[i]))
	}
	return records
}
