package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceCreated(t *testing.T) {
	t.Run("delivers the event payload", func(t *testing.T) {
		var got map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		invoiceID := uuid.New()
		notifier := NewWebhookNotifier(server.URL, time.Second, nil)

		require.NoError(t, notifier.InvoiceCreated(context.Background(), "tenant-1", invoiceID))
		assert.Equal(t, "tenant-1", got["tenant_id"])
		assert.Equal(t, invoiceID.String(), got["factura_id"])
		assert.Equal(t, "factura_creada", got["evento"])
	})

	t.Run("error status is reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		notifier := NewWebhookNotifier(server.URL, time.Second, nil)
		assert.Error(t, notifier.InvoiceCreated(context.Background(), "tenant-1", uuid.New()))
	})

	t.Run("unreachable webhook is reported", func(t *testing.T) {
		notifier := NewWebhookNotifier("http://127.0.0.1:1", 100*time.Millisecond, nil)
		assert.Error(t, notifier.InvoiceCreated(context.Background(), "tenant-1", uuid.New()))
	})
}
