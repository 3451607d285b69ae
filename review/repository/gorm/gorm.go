package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/review"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type gormReviewRepository struct {
	persistence.Repository[review.Review]
}

func NewGormReviewRepository(d *gorm.DB) review.Repository {
	return &gormReviewRepository{
		Repository: persistence.NewRepository[review.Review](d),
	}
}

func targetConds(target record.Ref) map[string]interface{} {
	return map[string]interface{}{
		"reviewable_type": target.Type,
		"reviewable_id":   target.ID,
	}
}

func (g *gormReviewRepository) Get(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	return g.Repository.Get(ctx, id)
}

func (g *gormReviewRepository) Exists(ctx context.Context, accountTypeInfoID uuid.UUID, target record.Ref) (bool, error) {
	var count int64
	conds := targetConds(target)
	conds["account_type_info_id"] = accountTypeInfoID
	if err := g.Conn(ctx).Unscoped().Model(&review.Review{}).Where(conds).Count(&count).Error; err != nil {
		return false, persistence.Translate(err, "Failed to look up review of %s", target)
	}
	return count > 0, nil
}

func (g *gormReviewRepository) ListFor(ctx context.Context, target record.Ref, page internal.Page) ([]review.Review, error) {
	return g.Find(ctx, targetConds(target), persistence.OrderBy("created_at DESC"), persistence.Paginate(page))
}

func (g *gormReviewRepository) Summarize(ctx context.Context, target record.Ref) (*review.Summary, error) {
	var row struct {
		Count   int64
		Average *float64
	}
	err := g.Conn(ctx).
		Model(&review.Review{}).
		Select("COUNT(*) AS count, AVG(rating) AS average").
		Where(targetConds(target)).
		Scan(&row).Error
	if err != nil {
		return nil, persistence.Translate(err, "Failed to summarize reviews of %s", target)
	}
	summary := &review.Summary{Count: row.Count, Average: decimal.Zero}
	if row.Average != nil {
		summary.Average = decimal.NewFromFloat(*row.Average).Round(2)
	}
	return summary, nil
}
