package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appinvoice "github.com/facturas/backend/internal/application/invoice"
	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	createReq  *appinvoice.CreateInvoiceRequest
	createResp *appinvoice.InvoiceRecord
	createErr  error

	getTenant string
	getID     uuid.UUID
	getResp   *appinvoice.InvoiceRecord
	getErr    error

	updateReq  *appinvoice.UpdatePurchaseRequest
	updateResp *appinvoice.InvoiceRecord
	updateErr  error

	deleteID  uuid.UUID
	deleteErr error

	listFilter invoice.ListFilter
	listResp   []appinvoice.InvoiceRecord
	listErr    error
}

func (s *stubService) Create(_ context.Context, req appinvoice.CreateInvoiceRequest) (*appinvoice.InvoiceRecord, error) {
	s.createReq = &req
	return s.createResp, s.createErr
}

func (s *stubService) GetByID(_ context.Context, tenantID string, id uuid.UUID) (*appinvoice.InvoiceRecord, error) {
	s.getTenant = tenantID
	s.getID = id
	return s.getResp, s.getErr
}

func (s *stubService) UpdatePurchase(_ context.Context, _ string, _ uuid.UUID, req appinvoice.UpdatePurchaseRequest) (*appinvoice.InvoiceRecord, error) {
	s.updateReq = &req
	return s.updateResp, s.updateErr
}

func (s *stubService) Delete(_ context.Context, _ string, id uuid.UUID) error {
	s.deleteID = id
	return s.deleteErr
}

func (s *stubService) List(_ context.Context, _ string, filter invoice.ListFilter) ([]appinvoice.InvoiceRecord, error) {
	s.listFilter = filter
	return s.listResp, s.listErr
}

func performJSON(t *testing.T, handlerFn gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handlerFn(c)
	return w
}

func sampleRecord() *appinvoice.InvoiceRecord {
	return &appinvoice.InvoiceRecord{
		TenantID:         "tenant-1",
		InvoiceID:        uuid.NewString(),
		UserID:           "user-1",
		Status:           "activa",
		FailedProductIDs: []string{},
	}
}

func TestInvoiceHandlerCreate(t *testing.T) {
	t.Run("creates an invoice", func(t *testing.T) {
		svc := &stubService{createResp: sampleRecord()}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create,
			`{"tenant_id":"tenant-1","usuario_id":"user-1","productos":[{"id":"prod-1","cantidad":2}]}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, svc.createReq)
		assert.Equal(t, "tenant-1", svc.createReq.TenantID)
		require.Len(t, svc.createReq.Products, 1)
		assert.Equal(t, "prod-1", svc.createReq.Products[0].ProductID)
		require.NotNil(t, svc.createReq.Products[0].Quantity)
		assert.EqualValues(t, 2, *svc.createReq.Products[0].Quantity)

		var resp struct {
			Success bool                     `json:"success"`
			Data    appinvoice.InvoiceRecord `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "tenant-1", resp.Data.TenantID)
	})

	t.Run("omitted quantity stays nil", func(t *testing.T) {
		svc := &stubService{createResp: sampleRecord()}
		h := NewInvoiceHandler(svc)

		performJSON(t, h.Create,
			`{"tenant_id":"tenant-1","usuario_id":"user-1","productos":[{"id":"prod-1"}]}`)

		require.NotNil(t, svc.createReq)
		require.Len(t, svc.createReq.Products, 1)
		assert.Nil(t, svc.createReq.Products[0].Quantity)
	})

	t.Run("id_prod is accepted as a product id alias", func(t *testing.T) {
		svc := &stubService{createResp: sampleRecord()}
		h := NewInvoiceHandler(svc)

		performJSON(t, h.Create,
			`{"tenant_id":"tenant-1","usuario_id":"user-1","productos":[{"id_prod":"prod-1","cantidad":2}]}`)

		require.NotNil(t, svc.createReq)
		require.Len(t, svc.createReq.Products, 1)
		assert.Equal(t, "prod-1", svc.createReq.Products[0].ProductID)
	})

	t.Run("body padded with whitespace and control chars is accepted", func(t *testing.T) {
		svc := &stubService{createResp: sampleRecord()}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create,
			"\n\t \x00{\"tenant_id\":\"tenant-1\",\"usuario_id\":\"user-1\",\"productos\":[{\"id\":\"prod-1\"}]}\r\n ")

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("single quoted near-JSON is accepted as fallback", func(t *testing.T) {
		svc := &stubService{createResp: sampleRecord()}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create,
			`{'tenant_id':'tenant-1','usuario_id':'user-1','productos':[{'id':'prod-1'}]}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, svc.createReq)
		assert.Equal(t, "tenant-1", svc.createReq.TenantID)
	})

	t.Run("garbage body is a 400", func(t *testing.T) {
		svc := &stubService{}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create, `not json at all`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, svc.createReq)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		svc := &stubService{createErr: shared.NewValidationError("Tenant ID cannot be empty")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create, `{"usuario_id":"user-1","productos":[{"id":"p"}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("strict lookup miss maps to 404", func(t *testing.T) {
		svc := &stubService{createErr: shared.NewNotFoundError("User %s not found", "user-9")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create,
			`{"tenant_id":"tenant-1","usuario_id":"user-9","productos":[{"id":"p"}]}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("strict directory outage maps to 404", func(t *testing.T) {
		svc := &stubService{createErr: shared.NewNotFoundError("Could not resolve user %s", "user-1")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create,
			`{"tenant_id":"tenant-1","usuario_id":"user-1","productos":[{"id":"p"}]}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})

	t.Run("persistence failure maps to 500", func(t *testing.T) {
		svc := &stubService{createErr: shared.NewDomainError("INTERNAL_ERROR", "Failed to persist invoice")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create,
			`{"tenant_id":"tenant-1","usuario_id":"user-1","productos":[{"id":"p"}]}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("unknown error maps to 500", func(t *testing.T) {
		svc := &stubService{createErr: errors.New("boom")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Create,
			`{"tenant_id":"tenant-1","usuario_id":"user-1","productos":[{"id":"p"}]}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestInvoiceHandlerGet(t *testing.T) {
	t.Run("returns the invoice", func(t *testing.T) {
		record := sampleRecord()
		svc := &stubService{getResp: record}
		h := NewInvoiceHandler(svc)

		id := uuid.New()
		w := performJSON(t, h.Get,
			`{"tenant_id":"tenant-1","factura_id":"`+id.String()+`"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "tenant-1", svc.getTenant)
		assert.Equal(t, id, svc.getID)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		svc := &stubService{}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Get, `{"tenant_id":"tenant-1","factura_id":"not-a-uuid"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing id is a 400", func(t *testing.T) {
		svc := &stubService{}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Get, `{"tenant_id":"tenant-1"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown invoice is a 404", func(t *testing.T) {
		svc := &stubService{getErr: shared.NewNotFoundError("Invoice not found")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Get,
			`{"tenant_id":"tenant-1","factura_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvoiceHandlerUpdate(t *testing.T) {
	t.Run("replaces the purchase", func(t *testing.T) {
		svc := &stubService{updateResp: sampleRecord()}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Update,
			`{"tenant_id":"tenant-1","factura_id":"`+uuid.NewString()+`",`+
				`"compra":{"productos":[{"id_prod":"prod-1","nombre":"Teclado","precio_unitario":"19.99","cantidad":2,"subtotal":"39.98","disponible":true}],"total":"39.98"}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.updateReq)
		require.Len(t, svc.updateReq.Lines, 1)
		assert.Equal(t, "prod-1", svc.updateReq.Lines[0].ProductID)
		assert.Equal(t, "39.98", svc.updateReq.Total.String())
	})

	t.Run("missing compra is a 400", func(t *testing.T) {
		svc := &stubService{}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Update,
			`{"tenant_id":"tenant-1","factura_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, svc.updateReq)
	})

	t.Run("unknown invoice is a 404", func(t *testing.T) {
		svc := &stubService{updateErr: shared.NewNotFoundError("Invoice not found")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Update,
			`{"tenant_id":"tenant-1","factura_id":"`+uuid.NewString()+`",`+
				`"compra":{"productos":[{"id_prod":"p","cantidad":1}],"total":"1"}}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvoiceHandlerDelete(t *testing.T) {
	t.Run("confirms the deletion", func(t *testing.T) {
		svc := &stubService{}
		h := NewInvoiceHandler(svc)

		id := uuid.New()
		w := performJSON(t, h.Delete,
			`{"tenant_id":"tenant-1","factura_id":"`+id.String()+`"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, svc.deleteID)

		var resp struct {
			Data deleteResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Deleted)
		assert.Equal(t, id.String(), resp.Data.InvoiceID)
	})

	t.Run("unknown invoice is a 404 not a silent success", func(t *testing.T) {
		svc := &stubService{deleteErr: shared.NewNotFoundError("Invoice not found")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.Delete,
			`{"tenant_id":"tenant-1","factura_id":"`+uuid.NewString()+`"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvoiceHandlerList(t *testing.T) {
	t.Run("passes the filter through", func(t *testing.T) {
		svc := &stubService{listResp: []appinvoice.InvoiceRecord{*sampleRecord(), *sampleRecord()}}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.List,
			`{"tenant_id":"tenant-1","usuario_id":"user-1","limit":25,"skip":5}`)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.listFilter.UserID)
		assert.Equal(t, "user-1", *svc.listFilter.UserID)
		assert.Equal(t, 25, svc.listFilter.Limit)

		var resp struct {
			Data []appinvoice.InvoiceRecord `json:"data"`
			Meta struct {
				Count int `json:"count"`
				Limit int `json:"limit"`
				Skip  int `json:"skip"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, 2, resp.Meta.Count)
		assert.Equal(t, 25, resp.Meta.Limit)
		assert.Equal(t, 5, resp.Meta.Skip)
	})

	t.Run("meta reports the default limit", func(t *testing.T) {
		svc := &stubService{listResp: []appinvoice.InvoiceRecord{}}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.List, `{"tenant_id":"tenant-1"}`)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Meta struct {
				Limit int `json:"limit"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, invoice.DefaultListLimit, resp.Meta.Limit)
	})

	t.Run("listing failure maps to 500", func(t *testing.T) {
		svc := &stubService{listErr: shared.NewDomainError("INTERNAL_ERROR", "Failed to list invoices")}
		h := NewInvoiceHandler(svc)

		w := performJSON(t, h.List, `{"tenant_id":"tenant-1"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
