package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/service"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportReservations 导出预约为 Excel
// GET /api/v1/reservations/export
func (h *ExportHandler) ExportReservations(c *gin.Context) {
	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportReservations(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// PrinterCalendar 打印机预约日历订阅
// GET /api/v1/printers/:id/calendar.ics
func (h *ExportHandler) PrinterCalendar(c *gin.Context) {
	id, ok := idParam(c, "id", service.ErrPrinterNotFound)
	if !ok {
		return
	}

	feed, err := h.exportSvc.PrinterCalendar(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
