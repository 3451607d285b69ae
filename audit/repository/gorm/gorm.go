package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/audit"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"gorm.io/gorm"
)

type gormAuditRepository struct {
	persistence.Repository[audit.Log]
}

func NewGormAuditRepository(d *gorm.DB) audit.Repository {
	return &gormAuditRepository{Repository: persistence.NewRepository[audit.Log](d)}
}

func (g *gormAuditRepository) List(ctx context.Context, resourceType string, resourceID string, page internal.Page) ([]audit.Log, error) {
	return g.Find(ctx, map[string]interface{}{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}, persistence.OrderBy("created_at DESC"), persistence.Paginate(page))
}
