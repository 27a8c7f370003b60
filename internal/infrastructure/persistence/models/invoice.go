package models

import (
	"encoding/json"
	"fmt"

	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for invoices. Line items and the
// user snapshot are stored as JSON documents using the same field names
// as the wire format, so the stored documents and the archived blobs
// stay interchangeable.
type InvoiceModel struct {
	TenantModel
	UserID         string            `gorm:"not null;index;size:128"`
	Date           string            `gorm:"not null;index;size:10"`
	Status         string            `gorm:"not null;size:32"`
	Total          valueobject.Money `gorm:"type:numeric(20,6);not null"`
	Products       []byte            `gorm:"type:jsonb;not null"`
	UserInfo       []byte            `gorm:"type:jsonb;not null"`
	FailedProducts []byte            `gorm:"type:jsonb"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "facturas"
}

type lineItemDoc struct {
	ProductID string            `json:"id_prod"`
	Name      string            `json:"nombre"`
	UnitPrice valueobject.Money `json:"precio_unitario"`
	Quantity  int64             `json:"cantidad"`
	Subtotal  valueobject.Money `json:"subtotal"`
	Available bool              `json:"disponible"`
}

type userInfoDoc struct {
	UserID    string         `json:"id,omitempty"`
	Name      string         `json:"nombre"`
	Email     string         `json:"email"`
	Phone     string         `json:"telefono,omitempty"`
	Address   map[string]any `json:"direccion"`
	Available bool           `json:"disponible"`
}

// InvoiceModelFromDomain converts a domain invoice to its persistence model
func InvoiceModelFromDomain(inv *invoice.Invoice) (*InvoiceModel, error) {
	lines := make([]lineItemDoc, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, lineItemDoc{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal,
			Available: l.Available,
		})
	}
	products, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to encode line items: %w", err)
	}

	userInfo, err := json.Marshal(userInfoDoc{
		UserID:    inv.User.UserID,
		Name:      inv.User.Name,
		Email:     inv.User.Email,
		Phone:     inv.User.Phone,
		Address:   inv.User.Address,
		Available: inv.User.Available,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode user snapshot: %w", err)
	}

	failed, err := json.Marshal(inv.FailedProductIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode failed product ids: %w", err)
	}

	model := &InvoiceModel{
		UserID:         inv.UserID,
		Date:           inv.Date,
		Status:         inv.Status.String(),
		Total:          inv.Total,
		Products:       products,
		UserInfo:       userInfo,
		FailedProducts: failed,
	}
	model.FromDomainTenantEntity(inv.TenantEntity)
	return model, nil
}

// ToDomain converts the persistence model back to a domain invoice
func (m *InvoiceModel) ToDomain() (*invoice.Invoice, error) {
	var lines []lineItemDoc
	if len(m.Products) > 0 {
		if err := json.Unmarshal(m.Products, &lines); err != nil {
			return nil, fmt.Errorf("failed to decode line items: %w", err)
		}
	}

	var user userInfoDoc
	if len(m.UserInfo) > 0 {
		if err := json.Unmarshal(m.UserInfo, &user); err != nil {
			return nil, fmt.Errorf("failed to decode user snapshot: %w", err)
		}
	}

	var failed []string
	if len(m.FailedProducts) > 0 {
		if err := json.Unmarshal(m.FailedProducts, &failed); err != nil {
			return nil, fmt.Errorf("failed to decode failed product ids: %w", err)
		}
	}
	if failed == nil {
		failed = make([]string, 0)
	}

	items := make([]invoice.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, invoice.LineItem{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal,
			Available:   l.Available,
		})
	}

	return &invoice.Invoice{
		TenantEntity: m.ToDomainTenantEntity(),
		UserID:       m.UserID,
		User: invoice.UserSnapshot{
			UserID:    user.UserID,
			Name:      user.Name,
			Email:     user.Email,
			Phone:     user.Phone,
			Address:   user.Address,
			Available: user.Available,
		},
		Lines:            items,
		Total:            m.Total,
		Date:             m.Date,
		Status:           invoice.Status(m.Status),
		FailedProductIDs: failed,
	}, nil
}

// ArchivePartitionModel records one registered archive partition. The
// (tenant_id, date) pair is unique; a second registration of the same
// partition must not create a duplicate row.
type ArchivePartitionModel struct {
	BaseModel
	TenantID string `gorm:"not null;uniqueIndex:idx_archive_partition;size:128"`
	Date     string `gorm:"not null;uniqueIndex:idx_archive_partition;size:10"`
	Location string `gorm:"not null;size:1024"`
}

// TableName returns the table name for ArchivePartitionModel
func (ArchivePartitionModel) TableName() string {
	return "archive_partitions"
}
