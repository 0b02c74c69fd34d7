package services

import (
	"fmt"

	"github.com/google/uuid"

	activityrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/activity"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type NotificationService interface {
	List(dbc dbctx.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error)
	MarkRead(dbc dbctx.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(dbc dbctx.Context, recipientID uuid.UUID) error
}

type notificationService struct {
	log  *logger.Logger
	repo activityrepo.NotificationRepo
}

func NewNotificationService(baseLog *logger.Logger, repo activityrepo.NotificationRepo) NotificationService {
	return &notificationService{
		log:  baseLog.With("service", "NotificationService"),
		repo: repo,
	}
}

func (ns *notificationService) List(dbc dbctx.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return ns.repo.ListByRecipient(dbc, recipientID, unreadOnly, limit)
}

func (ns *notificationService) MarkRead(dbc dbctx.Context, recipientID, notificationID uuid.UUID) error {
	affected, err := ns.repo.MarkRead(dbc, notificationID, recipientID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if affected == 0 {
		// Foreign notifications look identical to missing ones.
		return apierr.NotFound(fmt.Errorf("notification not found"))
	}
	return nil
}

func (ns *notificationService) MarkAllRead(dbc dbctx.Context, recipientID uuid.UUID) error {
	return ns.repo.MarkAllRead(dbc, recipientID)
}
