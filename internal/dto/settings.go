package dto

// ── 系统策略模块 DTO ──

// UpdateSettingsRequest 更新系统策略请求（部分更新）
type UpdateSettingsRequest struct {
	MaxReservationsPerUser   *int  `json:"max_reservations_per_user"  binding:"omitempty,min=1,max=50"`
	MaxReservationHours      *int  `json:"max_reservation_hours"      binding:"omitempty,min=1,max=720"`
	AllowWeekendReservations *bool `json:"allow_weekend_reservations"`
}

// SettingsResponse 系统策略响应
type SettingsResponse struct {
	MaxReservationsPerUser   int     `json:"max_reservations_per_user"`
	MaxReservationHours      int     `json:"max_reservation_hours"`
	AllowWeekendReservations bool    `json:"allow_weekend_reservations"`
	UpdatedBy                *string `json:"updated_by,omitempty"`
	UpdatedAt                string  `json:"updated_at,omitempty"`
}
