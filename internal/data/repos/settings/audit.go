package settings

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// AuditRepo is append-only, like the activity log.
type AuditRepo interface {
	Append(dbc dbctx.Context, entry *domain.AuditLog) (*domain.AuditLog, error)
	ListByActor(dbc dbctx.Context, actorID uuid.UUID, limit int) ([]*domain.AuditLog, error)
}

type auditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
	return &auditRepo{db: db, log: baseLog.With("repo", "AuditRepo")}
}

func (r *auditRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *auditRepo) Append(dbc dbctx.Context, entry *domain.AuditLog) (*domain.AuditLog, error) {
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *auditRepo) ListByActor(dbc dbctx.Context, actorID uuid.UUID, limit int) ([]*domain.AuditLog, error) {
	q := r.handle(dbc).WithContext(dbc.Ctx).Where("actor_id = ?", actorID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*domain.AuditLog
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
