package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders 预约 API 的安全响应头
// 响应只有 JSON、xlsx 导出和 iCalendar 订阅，CSP 不放行任何资源
// 带 Token 的响应包含个人预约信息，禁止中间缓存；公开日历由处理器自行设置缓存策略
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		if strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			h.Set("Cache-Control", "no-store")
		}
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000")
		}

		c.Next()
	}
}
