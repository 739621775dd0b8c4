package dto

import "time"

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	ExpiresIn    int           `json:"expires_in"` // Access Token 有效期（秒）
	User         *UserResponse `json:"user,omitempty"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Role             string `json:"role"`
	IsActive         bool   `json:"is_active"`
	ReservationCount *int64 `json:"reservation_count,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// UserBrief 嵌入在预约中的用户摘要
type UserBrief struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Limit  int `form:"limit"  binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// GetLimit 获取每页数量（含默认值）
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return 50
	}
	if p.Limit > 200 {
		return 200
	}
	return p.Limit
}

// GetOffset 获取偏移量
func (p *PaginationRequest) GetOffset() int {
	if p.Offset < 0 {
		return 0
	}
	return p.Offset
}

// FormatTime 统一的时间输出格式（UTC, RFC3339）
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
