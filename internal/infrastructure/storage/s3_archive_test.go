package storage

import (
	"testing"

	"github.com/facturas/backend/internal/domain/invoice"
	infraconfig "github.com/facturas/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3ArchiveStore(t *testing.T) {
	t.Run("requires configuration", func(t *testing.T) {
		_, err := NewS3ArchiveStore(nil)
		assert.Error(t, err)
	})

	t.Run("requires a bucket", func(t *testing.T) {
		_, err := NewS3ArchiveStore(&infraconfig.ArchiveConfig{})
		assert.Error(t, err)
	})

	t.Run("rejects malformed endpoint", func(t *testing.T) {
		_, err := NewS3ArchiveStore(&infraconfig.ArchiveConfig{
			Bucket:   "facturas-archive",
			Endpoint: "http://bad endpoint",
		})
		assert.Error(t, err)
	})

	t.Run("builds store from minimal config", func(t *testing.T) {
		store, err := NewS3ArchiveStore(&infraconfig.ArchiveConfig{
			Bucket: "facturas-archive",
			Prefix: "facturas",
		})
		require.NoError(t, err)
		assert.Equal(t, "facturas-archive", store.bucket)
		assert.Equal(t, "facturas", store.prefix)
	})
}

func TestArchiveKeys(t *testing.T) {
	store := NewS3ArchiveStoreWithClient(nil, "facturas-archive", "/facturas/", nil)

	inv, err := invoice.NewInvoice("tenant-1", "user-1",
		invoice.UserSnapshot{UserID: "user-1", Available: true}, "2026-04-01")
	require.NoError(t, err)

	t.Run("object key is partitioned by tenant and date", func(t *testing.T) {
		key := store.objectKey(inv)
		assert.Equal(t,
			"facturas/tenant_id=tenant-1/fecha=2026-04-01/"+inv.ID.String()+".json",
			key)
	})

	t.Run("partition location is the directory uri", func(t *testing.T) {
		assert.Equal(t,
			"s3://facturas-archive/facturas/tenant_id=tenant-1/fecha=2026-04-01/",
			store.partitionLocation(inv))
	})

	t.Run("empty prefix omits the leading segment", func(t *testing.T) {
		bare := NewS3ArchiveStoreWithClient(nil, "facturas-archive", "", nil)
		assert.Equal(t,
			"tenant_id=tenant-1/fecha=2026-04-01/"+inv.ID.String()+".json",
			bare.objectKey(inv))
	})
}
