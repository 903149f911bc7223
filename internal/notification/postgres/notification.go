package postgres

import (
	"context"
	"time"

	notificationDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/notification"
	"github.com/yusufwdn/reimverse/internal/notification"
	"github.com/yusufwdn/reimverse/internal/transport"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.RepositoryAPI {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Insert reports false when a row with the same id is already there.
func (r *NotificationRepository) Insert(ctx context.Context, row *notificationDatamodel.Notification) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, page transport.Pagination) ([]*notificationDatamodel.Notification, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).Where("user_id = ?", userID)
		if unreadOnly {
			q = q.Where("read_at IS NULL")
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := scoped().Order("created_at DESC").Order("id")
	if page.PerPage > 0 {
		q = q.Limit(page.PerPage).Offset(page.Offset())
	}
	var rows []*notificationDatamodel.Notification
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkRead keeps the first read time. It reports false only when the
// notification does not belong to userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID int64, id string, at time.Time) (bool, error) {
	owned, err := r.owned(ctx, userID, id)
	if err != nil || !owned {
		return false, err
	}
	err = r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", at).Error
	return err == nil, err
}

func (r *NotificationRepository) owned(ctx context.Context, userID int64, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error
	return count > 0, err
}
