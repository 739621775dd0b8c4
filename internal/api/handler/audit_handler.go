package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/service"
	"github.com/2302304/3d-tulostinvaraus/pkg/response"
)

// AuditHandler 审计日志 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs 审计日志查询
// GET /api/v1/audit
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var req dto.AuditListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.auditSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetLimit(), req.GetOffset())
}

// EntityHistory 单个实体的完整审计历史
// GET /api/v1/audit/entity/:entityType/:entityId
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	list, err := h.auditSvc.EntityHistory(c.Request.Context(), c.Param("entityType"), c.Param("entityId"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, list)
}
