package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/2302304/3d-tulostinvaraus/internal/model"
)

// SettingsRepository 系统策略数据访问接口（单行表）
type SettingsRepository interface {
	// Get 读取当前策略行；不存在时返回 gorm.ErrRecordNotFound
	Get(ctx context.Context) (*model.SystemSettings, error)
	// Save 无主键时插入，否则整行更新
	Save(ctx context.Context, settings *model.SystemSettings) error
}

type settingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepo 创建 SettingsRepository 实例
func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context) (*model.SystemSettings, error) {
	var settings model.SystemSettings
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Save(ctx context.Context, settings *model.SystemSettings) error {
	if settings.ID == "" {
		return r.db.WithContext(ctx).Create(settings).Error
	}
	return r.db.WithContext(ctx).Save(settings).Error
}
