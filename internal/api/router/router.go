package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/2302304/3d-tulostinvaraus/config"
	"github.com/2302304/3d-tulostinvaraus/internal/api/handler"
	"github.com/2302304/3d-tulostinvaraus/internal/api/middleware"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/service"
	"github.com/2302304/3d-tulostinvaraus/pkg/jwt"
)

// Deps 路由依赖；Blacklist 与 RateLimitStore 在 Redis 不可用时为 nil
type Deps struct {
	Config         *config.Config
	Handler        *handler.Handler
	JWT            *jwt.Manager
	Blacklist      service.TokenBlacklist
	RateLimitStore middleware.RateLimitStore
	Logger         *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	cfg, h := d.Config, d.Handler

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	staffOnly := middleware.RoleAuth(model.RoleStaff, model.RoleAdmin)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(d.RateLimitStore, cfg.RateLimit.APIRequests, cfg.RateLimit.APIWindow, d.Logger))
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(d.RateLimitStore, cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow, d.Logger))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 日历订阅（公开）
		v1.GET("/printers/:id/calendar.ics", h.Export.PrinterCalendar)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Blacklist, d.Logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.GET("/me/reservations", h.User.MyReservations)
				users.GET("", adminOnly, h.User.ListUsers)
				users.GET("/:id", adminOnly, h.User.GetUser)
				users.PATCH("/:id/role", adminOnly, h.User.UpdateRole)
				users.PATCH("/:id/status", adminOnly, h.User.UpdateStatus)
			}

			// 打印机模块
			printers := authorized.Group("/printers")
			{
				printers.GET("", h.Printer.ListPrinters)
				printers.GET("/:id", h.Printer.GetPrinter)
				printers.GET("/:id/reservations", h.Printer.PrinterReservations)
				printers.POST("", adminOnly, h.Printer.CreatePrinter)
				printers.PUT("/:id", adminOnly, h.Printer.UpdatePrinter)
				printers.DELETE("/:id", adminOnly, h.Printer.DeletePrinter)
			}

			// 预约模块（修改/取消的归属校验在 Service 层）
			reservations := authorized.Group("/reservations")
			{
				reservations.GET("", h.Reservation.ListReservations)
				reservations.GET("/export", staffOnly, h.Export.ExportReservations)
				reservations.GET("/:id", h.Reservation.GetReservation)
				reservations.POST("", h.Reservation.CreateReservation)
				reservations.PATCH("/:id", h.Reservation.UpdateReservation)
				reservations.POST("/:id/cancel", h.Reservation.CancelReservation)
				reservations.DELETE("/:id", adminOnly, h.Reservation.DeleteReservation)
			}

			// 系统策略
			authorized.GET("/settings", h.Settings.GetSettings)
			authorized.PUT("/settings", adminOnly, h.Settings.UpdateSettings)

			// 审计日志
			audit := authorized.Group("/audit", adminOnly)
			{
				audit.GET("", h.Audit.ListAuditLogs)
				audit.GET("/entity/:entityType/:entityId", h.Audit.EntityHistory)
			}
		}
	}

	return r
}
