package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=STUDENT STAFF ADMIN"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// UpdateRoleRequest 修改角色请求
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=STUDENT STAFF ADMIN"`
}

// UpdateStatusRequest 启用/停用账号请求
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
