package persistence

import (
	"context"
	"testing"

	"github.com/facturas/backend/internal/domain/invoice"
	"github.com/facturas/backend/internal/domain/shared"
	"github.com/facturas/backend/internal/domain/shared/valueobject"
	"github.com/facturas/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteRepository backs the repository with an in-memory database so
// the full write and read paths run against a real SQL engine.
func newSQLiteRepository(t *testing.T) *GormInvoiceRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.InvoiceModel{}, &models.ArchivePartitionModel{}))
	return NewGormInvoiceRepository(db)
}

func assembledInvoice(t *testing.T, tenantID, userID string) *invoice.Invoice {
	t.Helper()

	inv, err := invoice.NewInvoice(tenantID, userID,
		invoice.UserSnapshot{UserID: userID, Name: "Ana Torres", Email: "ana@example.com", Available: true},
		"2026-04-01")
	require.NoError(t, err)

	price, err := valueobject.NewMoneyFromString("19.99")
	require.NoError(t, err)
	line, err := invoice.NewLineItem("prod-1", "Teclado", price, 3)
	require.NoError(t, err)
	inv.AddLine(line)
	return inv
}

func TestGormInvoiceRepositoryRoundTrip(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	inv := assembledInvoice(t, "tenant-1", "user-1")
	require.NoError(t, repo.Save(ctx, inv))

	t.Run("find returns the stored invoice", func(t *testing.T) {
		got, err := repo.FindByID(ctx, "tenant-1", inv.ID)
		require.NoError(t, err)

		assert.Equal(t, inv.ID, got.ID)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "2026-04-01", got.Date)
		assert.Equal(t, "activa", got.Status.String())
		assert.Equal(t, "59.97", got.Total.String())
		require.Len(t, got.Lines, 1)
		assert.Equal(t, "Teclado", got.Lines[0].ProductName)
		assert.Equal(t, "Ana Torres", got.User.Name)
		assert.NotNil(t, got.FailedProductIDs)
	})

	t.Run("lookup is tenant scoped", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "tenant-2", inv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update replaces the purchase content", func(t *testing.T) {
		got, err := repo.FindByID(ctx, "tenant-1", inv.ID)
		require.NoError(t, err)

		price, err := valueobject.NewMoneyFromString("10.50")
		require.NoError(t, err)
		line, err := invoice.NewLineItem("prod-2", "Mouse", price, 2)
		require.NoError(t, err)
		got.ReplacePurchase([]invoice.LineItem{line}, line.Subtotal)

		require.NoError(t, repo.Update(ctx, got))

		reloaded, err := repo.FindByID(ctx, "tenant-1", inv.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Lines, 1)
		assert.Equal(t, "prod-2", reloaded.Lines[0].ProductID)
		assert.Equal(t, "21", reloaded.Total.String())
	})

	t.Run("delete removes the invoice", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "tenant-1", inv.ID))
		_, err := repo.FindByID(ctx, "tenant-1", inv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, "tenant-1", inv.ID), shared.ErrNotFound)
	})
}

func TestGormInvoiceRepositoryListing(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	for _, userID := range []string{"user-1", "user-1", "user-2"} {
		require.NoError(t, repo.Save(ctx, assembledInvoice(t, "tenant-1", userID)))
	}
	require.NoError(t, repo.Save(ctx, assembledInvoice(t, "tenant-2", "user-1")))

	t.Run("lists only the tenant's invoices", func(t *testing.T) {
		got, err := repo.FindAllForTenant(ctx, "tenant-1", invoice.ListFilter{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("filters by user id", func(t *testing.T) {
		userID := "user-2"
		got, err := repo.FindAllForTenant(ctx, "tenant-1", invoice.ListFilter{UserID: &userID, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "user-2", got[0].UserID)
	})

	t.Run("honors the limit", func(t *testing.T) {
		got, err := repo.FindAllForTenant(ctx, "tenant-1", invoice.ListFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unknown tenant yields an empty list", func(t *testing.T) {
		got, err := repo.FindAllForTenant(ctx, "tenant-9", invoice.ListFilter{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
