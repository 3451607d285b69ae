package gorm

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/token"
	"gorm.io/gorm"
)

type gormTokenRepository struct {
	persistence.Repository[token.Token]
}

func NewGormTokenRepository(d *gorm.DB) token.Repository {
	return &gormTokenRepository{
		Repository: persistence.NewRepository[token.Token](d),
	}
}

func (g *gormTokenRepository) GetByToken(ctx context.Context, value string) (*token.Token, error) {
	return g.FindOneBy(ctx, map[string]interface{}{"token": value})
}

func (g *gormTokenRepository) Revoke(ctx context.Context, value string, graceUntil *time.Time) (bool, error) {
	res := g.Conn(ctx).
		Model(&token.Token{}).
		Where("token = ? AND revoked = ?", value, false).
		Updates(map[string]interface{}{
			"revoked":    true,
			"deleted_at": graceUntil,
			"updated_at": g.DB.NowFunc(),
		})
	if res.Error != nil {
		return false, persistence.Translate(res.Error, "Failed to revoke token")
	}
	return res.RowsAffected > 0, nil
}

func (g *gormTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := g.Conn(ctx).
		Where("(deleted_at IS NOT NULL AND deleted_at < ?) OR (revoked = ? AND deleted_at IS NULL)", now, true).
		Delete(&token.Token{})
	if res.Error != nil {
		return 0, persistence.Translate(res.Error, "Failed to delete expired tokens")
	}
	return res.RowsAffected, nil
}
