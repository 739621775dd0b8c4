package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/service"
	"github.com/2302304/3d-tulostinvaraus/pkg/response"
)

// ReservationHandler 预约模块 HTTP 处理器
type ReservationHandler struct {
	reservationSvc service.ReservationService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(reservationSvc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc}
}

// ListReservations 预约列表
// GET /api/v1/reservations?printer_id=&user_id=&status=&start_date=&end_date=
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.reservationSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, list)
}

// GetReservation 预约详情
// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrReservationNotFound)
	if !ok {
		return
	}

	reservation, err := h.reservationSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, reservation)
}

// CreateReservation 创建预约
// POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reservation, err := h.reservationSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, reservation)
}

// UpdateReservation 修改预约时间或描述
// PATCH /api/v1/reservations/:id
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrReservationNotFound)
	if !ok {
		return
	}

	var req dto.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	reservation, err := h.reservationSvc.Update(c.Request.Context(), id, &req, callerID, role)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, reservation)
}

// CancelReservation 取消预约
// POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrReservationNotFound)
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	reservation, err := h.reservationSvc.Cancel(c.Request.Context(), id, callerID, role)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, reservation)
}

// DeleteReservation 物理删除预约（ADMIN）
// DELETE /api/v1/reservations/:id
func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrReservationNotFound)
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reservationSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, nil)
}
