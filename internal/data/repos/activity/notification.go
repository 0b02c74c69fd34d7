package activity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type NotificationRepo interface {
	Create(dbc dbctx.Context, n *domain.Notification) (*domain.Notification, error)
	ListByRecipient(dbc dbctx.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error)
	// MarkRead flips is_read for one notification owned by recipientID.
	// Returns the number of rows touched so callers can 404 on foreign rows.
	MarkRead(dbc dbctx.Context, id, recipientID uuid.UUID) (int64, error)
	MarkAllRead(dbc dbctx.Context, recipientID uuid.UUID) error
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *notificationRepo) Create(dbc dbctx.Context, n *domain.Notification) (*domain.Notification, error) {
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepo) ListByRecipient(dbc dbctx.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	q := r.handle(dbc).WithContext(dbc.Ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = false")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*domain.Notification
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *notificationRepo) MarkRead(dbc dbctx.Context, id, recipientID uuid.UUID) (int64, error) {
	res := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) MarkAllRead(dbc dbctx.Context, recipientID uuid.UUID) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).Error
}
