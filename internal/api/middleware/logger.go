package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/2302304/3d-tulostinvaraus/pkg/response"
)

// slowRequestThreshold 超过该耗时的请求即使成功也按 Warn 记录
const slowRequestThreshold = 2 * time.Second

// Logger 预约 API 访问日志
// route 记录路由模板（/api/v1/reservations/:id），便于按接口聚合；
// 被拒绝的请求附带错误类别（如 TIME_SLOT_TAKEN），健康检查只在 Debug 级别输出
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields = append(fields, zap.String("user_id", userID), zap.String("role", c.GetString("role")))
		}
		if kind := c.GetString(response.ErrorKindKey); kind != "" {
			fields = append(fields, zap.String("error_kind", kind))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("预约接口内部错误", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("预约接口请求被拒绝", fields...)
		case latency > slowRequestThreshold:
			logger.Warn("预约接口响应缓慢", fields...)
		case route == "/health":
			logger.Debug("健康检查", fields...)
		default:
			logger.Info("预约接口请求完成", fields...)
		}
	}
}
