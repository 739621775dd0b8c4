package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 审计动作
const (
	AuditReservationCreate = "RESERVATION_CREATE"
	AuditReservationUpdate = "RESERVATION_UPDATE"
	AuditReservationCancel = "RESERVATION_CANCEL"
	AuditReservationDelete = "RESERVATION_DELETE"
	AuditPrinterCreate     = "PRINTER_CREATE"
	AuditPrinterUpdate     = "PRINTER_UPDATE"
	AuditPrinterDelete     = "PRINTER_DELETE"
	AuditSettingsUpdate    = "SETTINGS_UPDATE"
	AuditUserRoleChange    = "USER_ROLE_CHANGE"
	AuditUserStatusChange  = "USER_STATUS_CHANGE"
	AuditRegister          = "REGISTER"
	AuditLogin             = "LOGIN"
	AuditLoginFailed       = "LOGIN_FAILED"
	AuditLogout            = "LOGOUT"
)

// 审计实体类型
const (
	EntityReservation = "RESERVATION"
	EntityPrinter     = "PRINTER"
	EntityUser        = "USER"
	EntitySystem      = "SYSTEM"
)

// AuditLog 审计日志表 — 对应 audit_logs，只追加
// OldValues/NewValues 为 JSON 文本快照
type AuditLog struct {
	ID         string    `gorm:"type:uuid;primaryKey"                     json:"id"`
	UserID     *string   `gorm:"type:uuid"                                json:"user_id,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null"                json:"action"`
	EntityType string    `gorm:"type:varchar(50);not null;index:idx_audit_logs_entity,priority:1" json:"entity_type"`
	EntityID   *string   `gorm:"type:varchar(100);index:idx_audit_logs_entity,priority:2"        json:"entity_id,omitempty"`
	OldValues  *string   `json:"old_values,omitempty"`
	NewValues  *string   `json:"new_values,omitempty"`
	IPAddress  *string   `gorm:"type:varchar(64)"                         json:"ip_address,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index:idx_audit_logs_created"    json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }

// BeforeCreate 生成主键
func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
