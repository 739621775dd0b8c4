package service

import (
	"go.uber.org/zap"

	"github.com/2302304/3d-tulostinvaraus/config"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
	"github.com/2302304/3d-tulostinvaraus/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Printer     PrinterService
	Reservation ReservationService
	Settings    SettingsService
	Audit       AuditService
	Export      ExportService

	// AuditSink 由 main 在退出时关闭以写完队列
	AuditSink AuditSink
}

// NewService 创建 Service 聚合
// blacklist 可为 nil
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	sink := NewAuditSink(repo.Audit, logger.Named("audit"), cfg.Scheduler.AuditBufferSize)
	locks := NewKeyedMutex()
	loc := cfg.Scheduler.Location()
	defaults := DefaultPolicy(&cfg.Scheduler)

	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, blacklist, sink, logger),
		User:        NewUserService(repo, sink, logger),
		Printer:     NewPrinterService(repo, locks, sink, loc, cfg.Scheduler.DefaultCalendarWindowDay, logger),
		Reservation: NewReservationService(repo, locks, sink, defaults, loc, logger),
		Settings:    NewSettingsService(repo, sink, defaults, logger),
		Audit:       NewAuditService(repo, logger),
		Export:      NewExportService(repo, loc, logger),
		AuditSink:   sink,
	}
}
