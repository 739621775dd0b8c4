package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 通用主键与时间戳（所有业务模型嵌入）
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null"             json:"updated_at"`
}

// BeforeCreate 在应用层生成 UUID，postgres 与 sqlite 行为一致
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null" json:"version"`
}
