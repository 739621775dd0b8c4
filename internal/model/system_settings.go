package model

// 策略默认值：system_settings 表中无记录时生效
const (
	DefaultMaxReservationsPerUser   = 3
	DefaultMaxReservationHours      = 48
	DefaultAllowWeekendReservations = true
)

// SystemSettings 系统策略单行表 — 对应 system_settings
type SystemSettings struct {
	BaseModel
	MaxReservationsPerUser   int     `gorm:"not null"  json:"max_reservations_per_user"`
	MaxReservationHours      int     `gorm:"not null"  json:"max_reservation_hours"`
	AllowWeekendReservations bool    `gorm:"not null"  json:"allow_weekend_reservations"`
	UpdatedBy                *string `gorm:"type:uuid" json:"updated_by,omitempty"`
}

// TableName 指定表名
func (SystemSettings) TableName() string { return "system_settings" }
