package handler

import (
	"context"

	"github.com/2302304/3d-tulostinvaraus/internal/service"
)

// Pinger 健康检查依赖（数据库）
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Printer     *PrinterHandler
	Reservation *ReservationHandler
	Settings    *SettingsHandler
	Audit       *AuditHandler
	Export      *ExportHandler
	Health      *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, db Pinger) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		User:        NewUserHandler(svc.User, svc.Auth, svc.Reservation),
		Printer:     NewPrinterHandler(svc.Printer),
		Reservation: NewReservationHandler(svc.Reservation),
		Settings:    NewSettingsHandler(svc.Settings),
		Audit:       NewAuditHandler(svc.Audit),
		Export:      NewExportHandler(svc.Export),
		Health:      NewHealthHandler(db),
	}
}
