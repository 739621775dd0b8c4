package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsExposeHeaders 前端需要读取的响应头：
// Content-Disposition 给预约导出与日历下载取文件名，X-Request-ID 用于报障
const corsExposeHeaders = "Content-Disposition, X-Request-ID"

// CORS 只允许配置中的前端来源携带 Token 调用预约 API
// 未列入白名单的来源不返回任何 CORS 头，浏览器自行拦截
func CORS(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if _, ok := allowed[origin]; ok {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			h.Add("Vary", "Origin")
			if c.Request.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE")
				h.Set("Access-Control-Max-Age", "600")
			}
		}

		// 预检请求不进入业务路由
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
