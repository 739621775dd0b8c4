package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/service"
	"github.com/2302304/3d-tulostinvaraus/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc        service.UserService
	authSvc        service.AuthService
	reservationSvc service.ReservationService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, authSvc service.AuthService, reservationSvc service.ReservationService) *UserHandler {
	return &UserHandler{userSvc: userSvc, authSvc: authSvc, reservationSvc: reservationSvc}
}

// ListUsers 用户列表（含预约数）
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetLimit(), req.GetOffset())
}

// GetUser 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrUserNotFound)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, user)
}

// GetCurrentUser 当前用户信息
// GET /api/v1/users/me
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, user)
}

// MyReservations 当前用户的预约（最新在前）
// GET /api/v1/users/me/reservations
func (h *UserHandler) MyReservations(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.reservationSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, list)
}

// UpdateRole 修改用户角色
// PATCH /api/v1/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrUserNotFound)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.UpdateRole(c.Request.Context(), id, &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateStatus 启用/停用账号
// PATCH /api/v1/users/:id/status
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrUserNotFound)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.UpdateStatus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, user)
}
