package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"unicode"

	appinvoice "github.com/facturas/backend/internal/application/invoice"
	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared/valueobject"
	"github.com/facturas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxBodySize bounds a request body read
const maxBodySize = 1 << 20

// InvoiceService is the application surface the handler drives
type InvoiceService interface {
	Create(ctx context.Context, req appinvoice.CreateInvoiceRequest) (*appinvoice.InvoiceRecord, error)
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*appinvoice.InvoiceRecord, error)
	UpdatePurchase(ctx context.Context, tenantID string, id uuid.UUID, req appinvoice.UpdatePurchaseRequest) (*appinvoice.InvoiceRecord, error)
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	List(ctx context.Context, tenantID string, filter invoice.ListFilter) ([]appinvoice.InvoiceRecord, error)
}

// InvoiceHandler handles the invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	service InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// RegisterRoutes mounts the invoice endpoints on the API group. All
// operations are body-addressed POST routes; there are no RESTful
// aliases.
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	facturas := rg.Group("/facturas")
	facturas.POST("", h.Create)
	facturas.POST("/get", h.Get)
	facturas.POST("/update", h.Update)
	facturas.POST("/delete", h.Delete)
	facturas.POST("/list", h.List)
}

// productRef is one requested product in a create request. The create
// body names the product id "id"; the persisted line-item field name
// "id_prod" is accepted as an alias.
type productRef struct {
	ProductID      string `json:"id"`
	ProductIDAlias string `json:"id_prod"`
	Quantity       *int64 `json:"cantidad"`
}

func (p productRef) id() string {
	if p.ProductID != "" {
		return p.ProductID
	}
	return p.ProductIDAlias
}

// createInvoiceRequest is the create request body
type createInvoiceRequest struct {
	TenantID string       `json:"tenant_id"`
	UserID   string       `json:"usuario_id"`
	Date     string       `json:"fecha"`
	Products []productRef `json:"productos"`
}

// invoiceRefRequest addresses one invoice by tenant and id
type invoiceRefRequest struct {
	TenantID  string `json:"tenant_id"`
	InvoiceID string `json:"factura_id"`
}

// purchaseLine is one line item supplied verbatim on update
type purchaseLine struct {
	ProductID string            `json:"id_prod"`
	Name      string            `json:"nombre"`
	UnitPrice valueobject.Money `json:"precio_unitario"`
	Quantity  int64             `json:"cantidad"`
	Subtotal  valueobject.Money `json:"subtotal"`
	Available bool              `json:"disponible"`
}

// purchasePayload is the replacement purchase content of an update
type purchasePayload struct {
	Products []purchaseLine    `json:"productos"`
	Total    valueobject.Money `json:"total"`
}

// updateInvoiceRequest is the update request body
type updateInvoiceRequest struct {
	TenantID  string           `json:"tenant_id"`
	InvoiceID string           `json:"factura_id"`
	Purchase  *purchasePayload `json:"compra"`
}

// listInvoicesRequest is the list request body
type listInvoicesRequest struct {
	TenantID string  `json:"tenant_id"`
	UserID   *string `json:"usuario_id"`
	Limit    int     `json:"limit"`
	Skip     int     `json:"skip"`
}

// deleteResult confirms a deletion
type deleteResult struct {
	InvoiceID string `json:"factura_id"`
	Deleted   bool   `json:"eliminada"`
}

// bindBody decodes a request body that may arrive padded with whitespace
// or control characters, or written with single quotes by sloppy clients.
// Strict JSON is tried first; the single quote rewrite is a fallback only.
func bindBody(c *gin.Context, v any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		return errors.New("could not read request body")
	}

	body = bytes.TrimFunc(body, func(r rune) bool {
		return r == ' ' || unicode.IsControl(r)
	})
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	if err := json.Unmarshal(body, v); err == nil {
		return nil
	}

	if bytes.ContainsRune(body, '\'') {
		rewritten := bytes.ReplaceAll(body, []byte{'\''}, []byte{'"'})
		if err := json.Unmarshal(rewritten, v); err == nil {
			return nil
		}
	}

	return errors.New("request body is not valid JSON")
}

// parseInvoiceID validates the invoice id format
func parseInvoiceID(raw string) (uuid.UUID, bool) {
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Create assembles and stores a new invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req createInvoiceRequest
	if err := bindBody(c, &req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	products := make([]appinvoice.ProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, appinvoice.ProductInput{
			ProductID: p.id(),
			Quantity:  p.Quantity,
		})
	}

	record, err := h.service.Create(c.Request.Context(), appinvoice.CreateInvoiceRequest{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Date:     req.Date,
		Products: products,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}

// Get returns one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	var req invoiceRefRequest
	if err := bindBody(c, &req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	id, ok := parseInvoiceID(req.InvoiceID)
	if !ok {
		h.BadRequest(c, dto.ErrCodeValidationFormat, "factura_id must be a valid UUID")
		return
	}

	record, err := h.service.GetByID(c.Request.Context(), req.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Update replaces the purchase contents of an existing invoice
func (h *InvoiceHandler) Update(c *gin.Context) {
	var req updateInvoiceRequest
	if err := bindBody(c, &req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	id, ok := parseInvoiceID(req.InvoiceID)
	if !ok {
		h.BadRequest(c, dto.ErrCodeValidationFormat, "factura_id must be a valid UUID")
		return
	}
	if req.Purchase == nil {
		h.BadRequest(c, dto.ErrCodeValidationRequired, "compra is required")
		return
	}

	lines := make([]appinvoice.PurchaseLineInput, 0, len(req.Purchase.Products))
	for _, p := range req.Purchase.Products {
		lines = append(lines, appinvoice.PurchaseLineInput{
			ProductID: p.ProductID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  p.Quantity,
			Subtotal:  p.Subtotal,
			Available: p.Available,
		})
	}

	record, err := h.service.UpdatePurchase(c.Request.Context(), req.TenantID, id, appinvoice.UpdatePurchaseRequest{
		Lines: lines,
		Total: req.Purchase.Total,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Delete removes one invoice
func (h *InvoiceHandler) Delete(c *gin.Context) {
	var req invoiceRefRequest
	if err := bindBody(c, &req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	id, ok := parseInvoiceID(req.InvoiceID)
	if !ok {
		h.BadRequest(c, dto.ErrCodeValidationFormat, "factura_id must be a valid UUID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.TenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, deleteResult{InvoiceID: id.String(), Deleted: true})
}

// List returns a tenant's invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var req listInvoicesRequest
	if err := bindBody(c, &req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	filter := invoice.ListFilter{
		UserID: req.UserID,
		Limit:  req.Limit,
		Skip:   req.Skip,
	}
	records, err := h.service.List(c.Request.Context(), req.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = invoice.DefaultListLimit
	}
	if limit > appinvoice.MaxListLimit {
		limit = appinvoice.MaxListLimit
	}
	h.SuccessWithMeta(c, records, len(records), limit, filter.Skip)
}
