package dto

import "time"

// ── 预约模块 DTO ──

// CreateReservationRequest 创建预约请求
type CreateReservationRequest struct {
	PrinterID   string    `json:"printer_id"  binding:"required,uuid"`
	StartTime   time.Time `json:"start_time"  binding:"required"`
	EndTime     time.Time `json:"end_time"    binding:"required"`
	Description *string   `json:"description" binding:"omitempty,max=1000"`
}

// UpdateReservationRequest 修改预约请求（字段均可选）
type UpdateReservationRequest struct {
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Description *string    `json:"description" binding:"omitempty,max=1000"`
}

// ReservationListRequest 预约列表过滤条件
// start_date/end_date 作用于开始时间，闭区间
type ReservationListRequest struct {
	PrinterID string `form:"printer_id" binding:"omitempty,uuid"`
	UserID    string `form:"user_id"    binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// ReservationResponse 预约信息响应
type ReservationResponse struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	PrinterID   string        `json:"printer_id"`
	StartTime   string        `json:"start_time"`
	EndTime     string        `json:"end_time"`
	Description *string       `json:"description,omitempty"`
	Status      string        `json:"status"`
	Version     int           `json:"version"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
	User        *UserBrief    `json:"user,omitempty"`
	Printer     *PrinterBrief `json:"printer,omitempty"`
}
