package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	settingsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/settings"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/cryptobox"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// Keys the settings API accepts. Anything else is rejected up front.
var allowedSettingKeys = map[string]bool{
	"storage.credentials": true,
	"storage.bucket":      true,
	"email.smtp_host":     true,
	"email.smtp_user":     true,
	"email.smtp_password": true,
	"email.from_address":  true,
}

// SettingView is what reads return: the value itself never leaves the
// service in the clear, only a masked tail.
type SettingView struct {
	Key         string    `json:"key"`
	MaskedValue string    `json:"masked_value"`
	UpdatedBy   string    `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SettingsService interface {
	Set(dbc dbctx.Context, actor *domain.User, key, value string) error
	Get(dbc dbctx.Context, actor *domain.User, key string) (*SettingView, error)
	List(dbc dbctx.Context, actor *domain.User) ([]*SettingView, error)
	// Reveal returns the decrypted value for in-process callers. The HTTP
	// surface only ever sees the masked view.
	Reveal(dbc dbctx.Context, key string) (string, error)
}

type settingsService struct {
	db          *gorm.DB
	log         *logger.Logger
	box         *cryptobox.Box
	settingRepo settingsrepo.SettingRepo
	auditRepo   settingsrepo.AuditRepo
}

func NewSettingsService(
	db *gorm.DB,
	baseLog *logger.Logger,
	box *cryptobox.Box,
	settingRepo settingsrepo.SettingRepo,
	auditRepo settingsrepo.AuditRepo,
) SettingsService {
	return &settingsService{
		db:          db,
		log:         baseLog.With("service", "SettingsService"),
		box:         box,
		settingRepo: settingRepo,
		auditRepo:   auditRepo,
	}
}

func (ss *settingsService) requireAdmin(actor *domain.User) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apierr.Forbidden(fmt.Errorf("settings require the ADMIN role"))
	}
	return nil
}

func (ss *settingsService) Set(dbc dbctx.Context, actor *domain.User, key, value string) error {
	if err := ss.requireAdmin(actor); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if !allowedSettingKeys[key] {
		return apierr.Validation(fmt.Errorf("unknown setting key %q", key))
	}
	if value == "" {
		return apierr.Validation(fmt.Errorf("setting value must not be empty"))
	}

	sealed, err := ss.box.Seal(value)
	if err != nil {
		return fmt.Errorf("seal setting: %w", err)
	}

	return ss.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := ss.settingRepo.Upsert(txc, &domain.AppSetting{
			Key:        key,
			CipherText: sealed,
			UpdatedBy:  actor.ID,
			UpdatedAt:  time.Now(),
		}); err != nil {
			return fmt.Errorf("store setting: %w", err)
		}
		detail, _ := json.Marshal(map[string]any{"masked_value": mask(value)})
		_, err := ss.auditRepo.Append(txc, &domain.AuditLog{
			ActorID:   actor.ID,
			Action:    "settings.update",
			TargetKey: key,
			Detail:    datatypes.JSON(detail),
		})
		return err
	})
}

func (ss *settingsService) Get(dbc dbctx.Context, actor *domain.User, key string) (*SettingView, error) {
	if err := ss.requireAdmin(actor); err != nil {
		return nil, err
	}
	row, err := ss.settingRepo.GetByKey(dbc, strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("load setting: %w", err)
	}
	if row == nil {
		return nil, apierr.NotFound(fmt.Errorf("setting not found"))
	}
	return ss.view(row)
}

func (ss *settingsService) List(dbc dbctx.Context, actor *domain.User) ([]*SettingView, error) {
	if err := ss.requireAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := ss.settingRepo.List(dbc)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make([]*SettingView, 0, len(rows))
	for _, row := range rows {
		v, err := ss.view(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (ss *settingsService) Reveal(dbc dbctx.Context, key string) (string, error) {
	row, err := ss.settingRepo.GetByKey(dbc, key)
	if err != nil {
		return "", fmt.Errorf("load setting: %w", err)
	}
	if row == nil {
		return "", apierr.NotFound(fmt.Errorf("setting not found"))
	}
	return ss.box.Open(row.CipherText)
}

func (ss *settingsService) view(row *domain.AppSetting) (*SettingView, error) {
	plain, err := ss.box.Open(row.CipherText)
	if err != nil {
		return nil, fmt.Errorf("open setting %s: %w", row.Key, err)
	}
	return &SettingView{
		Key:         row.Key,
		MaskedValue: mask(plain),
		UpdatedBy:   row.UpdatedBy.String(),
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// mask keeps the last four characters visible, enough to recognize a value
// without exposing it. Counted in runes so a multibyte tail stays intact.
func mask(v string) string {
	r := []rune(v)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", 8) + string(r[len(r)-4:])
}
