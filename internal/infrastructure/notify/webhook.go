// Package notify delivers invoice lifecycle signals to downstream consumers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appinvoice "github.com/facturas/backend/internal/application/invoice"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ensure WebhookNotifier implements the notifier port
var _ appinvoice.TaskNotifier = (*WebhookNotifier)(nil)

// WebhookNotifier posts invoice-created events to a downstream webhook.
// Delivery is one attempt with a bounded timeout; the caller decides
// whether to wait on the result (in practice it never does).
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type invoiceCreatedEvent struct {
	TenantID  string `json:"tenant_id"`
	InvoiceID string `json:"factura_id"`
	Event     string `json:"evento"`
}

// InvoiceCreated delivers one invoice-created event
func (n *WebhookNotifier) InvoiceCreated(ctx context.Context, tenantID string, invoiceID uuid.UUID) error {
	payload, err := json.Marshal(invoiceCreatedEvent{
		TenantID:  tenantID,
		InvoiceID: invoiceID.String(),
		Event:     "factura_creada",
	})
	if err != nil {
		return fmt.Errorf("notify: failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: webhook returned HTTP %d", resp.StatusCode)
	}

	n.logger.Debug("invoice created event delivered",
		zap.String("tenant_id", tenantID),
		zap.String("invoice_id", invoiceID.String()))
	return nil
}
