package model

import "time"

// 预约状态
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
	ReservationCompleted = "COMPLETED"
)

// ActiveReservationStatuses 参与重叠检测与配额统计的状态
var ActiveReservationStatuses = []string{ReservationPending, ReservationConfirmed}

// ValidReservationStatus 判断预约状态是否合法
func ValidReservationStatus(status string) bool {
	switch status {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// Reservation 预约表 — 对应 reservations
// 不变量：EndTime 严格晚于 StartTime
type Reservation struct {
	VersionedModel
	UserID      string    `gorm:"type:uuid;not null;index:idx_reservations_user_status,priority:1"    json:"user_id"`
	PrinterID   string    `gorm:"type:uuid;not null;index:idx_reservations_printer_start,priority:1" json:"printer_id"`
	StartTime   time.Time `gorm:"not null;index:idx_reservations_printer_start,priority:2"           json:"start_time"`
	EndTime     time.Time `gorm:"not null"                                                           json:"end_time"`
	Description *string   `gorm:"type:text"                                                          json:"description,omitempty"`
	Status      string    `gorm:"type:varchar(20);not null;index:idx_reservations_user_status,priority:2" json:"status"`

	// 关联
	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"    json:"user,omitempty"`
	Printer *Printer `gorm:"foreignKey:PrinterID;constraint:OnDelete:CASCADE" json:"printer,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }

// IsActive PENDING 与 CONFIRMED 视为活跃预约
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationPending || r.Status == ReservationConfirmed
}

// Duration 预约时长
func (r *Reservation) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
