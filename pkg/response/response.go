package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorKindKey 错误响应写入 gin.Context 的错误类别，请求日志据此记录拒绝原因
const ErrorKindKey = "error_kind"

// Response 统一响应结构
// Error 为机器可读的错误类别，前端据此选择提示文案
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
}

// Pagination 分页元数据
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// PageData 分页响应数据
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// OKPage 200 分页成功
func OKPage(c *gin.Context, list interface{}, total int64, limit, offset int) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data: PageData{
			List: list,
			Pagination: Pagination{
				Limit:  limit,
				Offset: offset,
				Total:  total,
			},
		},
	})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// Fail 带错误类别的错误响应
func Fail(c *gin.Context, httpStatus int, code int, kind, message string) {
	c.Set(ErrorKindKey, kind)
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Error:   kind,
	})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, message, details string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Fail(c, http.StatusBadRequest, code, "VALIDATION_ERROR", message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Fail(c, http.StatusUnauthorized, code, "UNAUTHORIZED", message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Fail(c, http.StatusForbidden, code, "FORBIDDEN", message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Fail(c, http.StatusNotFound, code, "NOT_FOUND", message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Fail(c, http.StatusInternalServerError, 50000, "INTERNAL_ERROR", "internal server error")
}
