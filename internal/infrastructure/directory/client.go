package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appinvoice "github.com/facturas/backend/internal/application/invoice"
	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// maxResponseSize limits lookup response bodies to prevent memory exhaustion
const maxResponseSize = 1 * 1024 * 1024 // 1MB

// SnapshotCache is an optional read-through cache for directory
// snapshots. Implementations must degrade silently: a cache failure is
// treated as a miss, never as a lookup failure.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Config holds the directory client settings
type Config struct {
	UserServiceURL    string
	ProductServiceURL string
	Timeout           time.Duration
	CacheTTL          time.Duration
}

// Client resolves users and products against the two lookup services.
// Each call is a single POST with a bounded timeout; there are no
// retries. It implements the application's DirectoryGateway port.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      SnapshotCache
	logger     *zap.Logger
}

// NewClient creates a directory client. cache may be nil.
func NewClient(cfg Config, cache SnapshotCache, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		logger:     logger,
	}
}

type userResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"nombre"`
	Email   string          `json:"email"`
	Phone   string          `json:"telefono"`
	Address json.RawMessage `json:"direccion"`
}

type productResponse struct {
	ID    string            `json:"id"`
	Name  string            `json:"nombre"`
	Price valueobject.Money `json:"precio"`
}

// FetchUser resolves one user snapshot
func (c *Client) FetchUser(ctx context.Context, tenantID, userID string) (*invoice.UserSnapshot, error) {
	cacheKey := "directory:user:" + tenantID + ":" + userID
	if cached, ok := c.cacheGet(ctx, cacheKey); ok {
		var snapshot invoice.UserSnapshot
		if err := json.Unmarshal(cached, &snapshot); err == nil {
			return &snapshot, nil
		}
	}

	body, err := c.doLookup(ctx, c.cfg.UserServiceURL, map[string]string{
		"tenant_id":  tenantID,
		"usuario_id": userID,
	})
	if err != nil {
		return nil, err
	}

	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: malformed user response: %v", appinvoice.ErrDirectoryUnavailable, err)
	}

	snapshot := &invoice.UserSnapshot{
		UserID:    userID,
		Name:      resp.Name,
		Email:     resp.Email,
		Phone:     resp.Phone,
		Address:   decodeAddress(resp.Address),
		Available: true,
	}
	if resp.ID != "" {
		snapshot.UserID = resp.ID
	}

	c.cachePut(ctx, cacheKey, snapshot)

	c.logger.Info("user resolved",
		zap.String("tenant_id", tenantID),
		zap.String("usuario_id", userID))
	return snapshot, nil
}

// FetchProduct resolves one product snapshot
func (c *Client) FetchProduct(ctx context.Context, tenantID, productID string) (*appinvoice.ProductSnapshot, error) {
	cacheKey := "directory:product:" + tenantID + ":" + productID
	if cached, ok := c.cacheGet(ctx, cacheKey); ok {
		var snapshot cachedProduct
		if err := json.Unmarshal(cached, &snapshot); err == nil {
			return &appinvoice.ProductSnapshot{
				ProductID: snapshot.ProductID,
				Name:      snapshot.Name,
				Price:     snapshot.Price,
			}, nil
		}
	}

	body, err := c.doLookup(ctx, c.cfg.ProductServiceURL, map[string]string{
		"tenant_id":   tenantID,
		"producto_id": productID,
	})
	if err != nil {
		return nil, err
	}

	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: malformed product response: %v", appinvoice.ErrDirectoryUnavailable, err)
	}

	snapshot := &appinvoice.ProductSnapshot{
		ProductID: productID,
		Name:      resp.Name,
		Price:     resp.Price,
	}

	c.cachePut(ctx, cacheKey, cachedProduct{
		ProductID: snapshot.ProductID,
		Name:      snapshot.Name,
		Price:     snapshot.Price,
	})

	c.logger.Info("product resolved",
		zap.String("tenant_id", tenantID),
		zap.String("producto_id", productID),
		zap.String("precio", snapshot.Price.String()))
	return snapshot, nil
}

type cachedProduct struct {
	ProductID string            `json:"id"`
	Name      string            `json:"nombre"`
	Price     valueobject.Money `json:"precio"`
}

func (c *Client) doLookup(ctx context.Context, url string, payload map[string]string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: lookup endpoint not configured", appinvoice.ErrDirectoryUnavailable)
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("directory: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("directory: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appinvoice.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", appinvoice.ErrDirectoryUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, appinvoice.ErrDirectoryNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", appinvoice.ErrDirectoryUnavailable, resp.StatusCode)
	}

	return body, nil
}

// decodeAddress tolerates both an inline JSON object and a JSON object
// encoded as a string. Anything undecodable becomes nil.
func decodeAddress(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}

	var address map[string]any
	if err := json.Unmarshal(raw, &address); err == nil {
		return address
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &address); err == nil {
			return address
		}
	}
	return nil
}

func (c *Client) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(ctx, key)
}

func (c *Client) cachePut(ctx context.Context, key string, value any) {
	if c.cache == nil || c.cfg.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.cache.Set(ctx, key, data, c.cfg.CacheTTL)
}

// Ensure Client implements the gateway port
var _ appinvoice.DirectoryGateway = (*Client)(nil)
