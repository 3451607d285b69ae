package gorm

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/notification"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type gormNotificationRepository struct {
	persistence.Repository[notification.Notification]

	preferences persistence.Repository[notification.Preference]
}

func NewGormNotificationRepository(d *gorm.DB) notification.Repository {
	return &gormNotificationRepository{
		Repository: persistence.NewRepository[notification.Notification](d),

		preferences: persistence.NewRepository[notification.Preference](d),
	}
}

func (g *gormNotificationRepository) Get(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	return g.Repository.Get(ctx, id)
}

func (g *gormNotificationRepository) List(ctx context.Context, accountTypeInfoID uuid.UUID, unreadOnly bool, page internal.Page) ([]notification.Notification, error) {
	conds := map[string]interface{}{"account_type_info_id": accountTypeInfoID}
	if unreadOnly {
		conds["is_read"] = false
	}
	return g.Find(ctx, conds, persistence.OrderBy("id DESC"), persistence.Paginate(page))
}

func (g *gormNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (*notification.Notification, error) {
	err := g.Conn(ctx).
		Model(&notification.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    at,
			"updated_at": at,
		}).Error
	if err != nil {
		return nil, persistence.Translate(err, "Failed to mark notification %s as read", id)
	}
	return g.Repository.Get(ctx, id)
}

func (g *gormNotificationRepository) CountUnread(ctx context.Context, accountTypeInfoID uuid.UUID) (int64, error) {
	return g.Count(ctx, map[string]interface{}{
		"account_type_info_id": accountTypeInfoID,
		"is_read":              false,
	})
}

func (g *gormNotificationRepository) GetPreference(ctx context.Context, accountTypeInfoID uuid.UUID) (*notification.Preference, error) {
	return g.preferences.FindOneBy(ctx, map[string]interface{}{"account_type_info_id": accountTypeInfoID})
}

func (g *gormNotificationRepository) FindOrCreatePreference(ctx context.Context, accountTypeInfoID uuid.UUID) (*notification.Preference, error) {
	found, _, err := g.preferences.FindOrCreate(ctx, map[string]interface{}{"account_type_info_id": accountTypeInfoID}, func() notification.Preference {
		return notification.DefaultPreference(accountTypeInfoID)
	})
	return found, err
}

func (g *gormNotificationRepository) UpdatePreference(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*notification.Preference, error) {
	return g.preferences.Update(ctx, id, changes)
}
