package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/2302304/3d-tulostinvaraus/config"
	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
)

// Policy 创建预约时生效的系统策略
type Policy struct {
	MaxReservationsPerUser   int  `json:"max_reservations_per_user"`
	MaxReservationHours      int  `json:"max_reservation_hours"`
	AllowWeekendReservations bool `json:"allow_weekend_reservations"`
}

// DefaultPolicy 策略行不存在时的默认值
func DefaultPolicy(cfg *config.SchedulerConfig) Policy {
	p := Policy{
		MaxReservationsPerUser:   model.DefaultMaxReservationsPerUser,
		MaxReservationHours:      model.DefaultMaxReservationHours,
		AllowWeekendReservations: model.DefaultAllowWeekendReservations,
	}
	if cfg == nil {
		return p
	}
	if cfg.DefaultMaxReservations > 0 {
		p.MaxReservationsPerUser = cfg.DefaultMaxReservations
	}
	if cfg.DefaultMaxHours > 0 {
		p.MaxReservationHours = cfg.DefaultMaxHours
	}
	p.AllowWeekendReservations = cfg.DefaultAllowWeekends
	return p
}

// loadPolicy 每次决策时读取当前策略，不做缓存
func loadPolicy(ctx context.Context, repo repository.SettingsRepository, defaults Policy) (Policy, error) {
	settings, err := repo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaults, nil
		}
		return Policy{}, err
	}
	return policyOf(settings), nil
}

// SettingsService 系统策略业务接口
type SettingsService interface {
	Get(ctx context.Context) (*dto.SettingsResponse, error)
	Update(ctx context.Context, req *dto.UpdateSettingsRequest, callerID string) (*dto.SettingsResponse, error)
}

type settingsService struct {
	repo     *repository.Repository
	audit    AuditSink
	defaults Policy
	logger   *zap.Logger
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService(repo *repository.Repository, audit AuditSink, defaults Policy, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, audit: audit, defaults: defaults, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *settingsService) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	settings, err := s.repo.Settings.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fromPolicy(s.defaults), nil
		}
		s.logger.Error("查询系统策略失败", zap.Error(err))
		return nil, err
	}
	return toSettingsResponse(settings), nil
}

// ────────────────────── Update ──────────────────────

func (s *settingsService) Update(ctx context.Context, req *dto.UpdateSettingsRequest, callerID string) (*dto.SettingsResponse, error) {
	var before Policy
	var saved *model.SystemSettings

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		settings, err := tx.Settings.Get(ctx)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// 首次更新时以默认值建行
			settings = &model.SystemSettings{
				MaxReservationsPerUser:   s.defaults.MaxReservationsPerUser,
				MaxReservationHours:      s.defaults.MaxReservationHours,
				AllowWeekendReservations: s.defaults.AllowWeekendReservations,
			}
		}
		before = policyOf(settings)

		if req.MaxReservationsPerUser != nil {
			settings.MaxReservationsPerUser = *req.MaxReservationsPerUser
		}
		if req.MaxReservationHours != nil {
			settings.MaxReservationHours = *req.MaxReservationHours
		}
		if req.AllowWeekendReservations != nil {
			settings.AllowWeekendReservations = *req.AllowWeekendReservations
		}
		if callerID != "" {
			settings.UpdatedBy = &callerID
		}

		if err := tx.Settings.Save(ctx, settings); err != nil {
			return err
		}
		saved = settings
		return nil
	})
	if err != nil {
		s.logger.Error("更新系统策略失败", zap.Error(err))
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Action:     model.AuditSettingsUpdate,
		EntityType: model.EntitySystem,
		EntityID:   saved.ID,
		ActorID:    callerID,
		OldValues:  before,
		NewValues:  policyOf(saved),
		IPAddress:  clientIPFrom(ctx),
	})

	return toSettingsResponse(saved), nil
}

// ── 内部辅助方法 ──

func (s *settingsService) fromPolicy(p Policy) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		MaxReservationsPerUser:   p.MaxReservationsPerUser,
		MaxReservationHours:      p.MaxReservationHours,
		AllowWeekendReservations: p.AllowWeekendReservations,
	}
}

func policyOf(settings *model.SystemSettings) Policy {
	return Policy{
		MaxReservationsPerUser:   settings.MaxReservationsPerUser,
		MaxReservationHours:      settings.MaxReservationHours,
		AllowWeekendReservations: settings.AllowWeekendReservations,
	}
}

func toSettingsResponse(settings *model.SystemSettings) *dto.SettingsResponse {
	resp := &dto.SettingsResponse{
		MaxReservationsPerUser:   settings.MaxReservationsPerUser,
		MaxReservationHours:      settings.MaxReservationHours,
		AllowWeekendReservations: settings.AllowWeekendReservations,
		UpdatedBy:                settings.UpdatedBy,
	}
	if !settings.UpdatedAt.IsZero() {
		resp.UpdatedAt = dto.FormatTime(settings.UpdatedAt)
	}
	return resp
}
