package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/service"
	"github.com/2302304/3d-tulostinvaraus/pkg/response"
)

// PrinterHandler 打印机模块 HTTP 处理器
type PrinterHandler struct {
	printerSvc service.PrinterService
}

// NewPrinterHandler 创建 PrinterHandler
func NewPrinterHandler(printerSvc service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerSvc: printerSvc}
}

// ListPrinters 打印机列表
// GET /api/v1/printers
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers, err := h.printerSvc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, printers)
}

// GetPrinter 打印机详情
// GET /api/v1/printers/:id
func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrPrinterNotFound)
	if !ok {
		return
	}

	printer, err := h.printerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, printer)
}

// CreatePrinter 新增打印机
// POST /api/v1/printers
func (h *PrinterHandler) CreatePrinter(c *gin.Context) {
	var req dto.CreatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	printer, err := h.printerSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, printer)
}

// UpdatePrinter 修改打印机
// PUT /api/v1/printers/:id
func (h *PrinterHandler) UpdatePrinter(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrPrinterNotFound)
	if !ok {
		return
	}

	var req dto.UpdatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	printer, err := h.printerSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, printer)
}

// DeletePrinter 删除打印机
// DELETE /api/v1/printers/:id
func (h *PrinterHandler) DeletePrinter(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrPrinterNotFound)
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.printerSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, nil)
}

// PrinterReservations 打印机日历窗口内的活跃预约
// GET /api/v1/printers/:id/reservations?start_date=&end_date=
func (h *PrinterHandler) PrinterReservations(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrPrinterNotFound)
	if !ok {
		return
	}

	var req dto.PrinterReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.printerSvc.Reservations(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, list)
}
