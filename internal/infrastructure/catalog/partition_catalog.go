package catalog

import (
	"context"
	"time"

	"github.com/facturas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPartitionCatalog registers archive partitions in the relational
// store. Registration is idempotent: a partition that already exists,
// including one created concurrently by another request, is left
// untouched and reported as success.
type GormPartitionCatalog struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormPartitionCatalog creates a new GormPartitionCatalog
func NewGormPartitionCatalog(db *gorm.DB, logger *zap.Logger) *GormPartitionCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormPartitionCatalog{db: db, logger: logger}
}

// EnsurePartition records the (tenant, date) partition and where its
// blobs live. Conflicts on the unique partition key are swallowed.
func (c *GormPartitionCatalog) EnsurePartition(ctx context.Context, tenantID, date, location string) error {
	now := time.Now().UTC()
	model := &models.ArchivePartitionModel{
		TenantID: tenantID,
		Date:     date,
		Location: location,
	}
	model.ID = uuid.New()
	model.CreatedAt = now
	model.UpdatedAt = now

	result := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		c.logger.Debug("partition already registered",
			zap.String("tenant_id", tenantID),
			zap.String("date", date))
	} else {
		c.logger.Info("partition registered",
			zap.String("tenant_id", tenantID),
			zap.String("date", date),
			zap.String("location", location))
	}
	return nil
}
