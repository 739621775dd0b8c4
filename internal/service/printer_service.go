package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
	pkgerrors "github.com/2302304/3d-tulostinvaraus/pkg/errors"
)

// PrinterService 打印机登记业务接口
type PrinterService interface {
	List(ctx context.Context) ([]dto.PrinterResponse, error)
	GetByID(ctx context.Context, id string) (*dto.PrinterResponse, error)
	Create(ctx context.Context, req *dto.CreatePrinterRequest, callerID string) (*dto.PrinterResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdatePrinterRequest, callerID string) (*dto.PrinterResponse, error)
	// Delete 存在未结束的活跃预约时拒绝删除；否则连同历史预约一并删除
	Delete(ctx context.Context, id string, callerID string) error
	// Reservations 日历窗口内的活跃预约，缺省窗口为今天零点起 calendarDays 天
	Reservations(ctx context.Context, id string, req *dto.PrinterReservationsRequest) ([]dto.ReservationResponse, error)
}

type printerService struct {
	repo         *repository.Repository
	locks        *KeyedMutex
	audit        AuditSink
	loc          *time.Location
	calendarDays int
	now          func() time.Time
	logger       *zap.Logger
}

// NewPrinterService 创建 PrinterService 实例
func NewPrinterService(
	repo *repository.Repository,
	locks *KeyedMutex,
	audit AuditSink,
	loc *time.Location,
	calendarDays int,
	logger *zap.Logger,
) PrinterService {
	if loc == nil {
		loc = time.UTC
	}
	if calendarDays <= 0 {
		calendarDays = 7
	}
	return &printerService{
		repo:         repo,
		locks:        locks,
		audit:        audit,
		loc:          loc,
		calendarDays: calendarDays,
		now:          time.Now,
		logger:       logger,
	}
}

// ────────────────────── List / GetByID ──────────────────────

func (s *printerService) List(ctx context.Context) ([]dto.PrinterResponse, error) {
	printers, err := s.repo.Printer.List(ctx)
	if err != nil {
		s.logger.Error("列出打印机失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PrinterResponse, 0, len(printers))
	for i := range printers {
		result = append(result, *toPrinterResponse(&printers[i]))
	}
	return result, nil
}

func (s *printerService) GetByID(ctx context.Context, id string) (*dto.PrinterResponse, error) {
	printer, err := s.getPrinter(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPrinterResponse(printer), nil
}

// ────────────────────── Create ──────────────────────

func (s *printerService) Create(ctx context.Context, req *dto.CreatePrinterRequest, callerID string) (*dto.PrinterResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	printer := &model.Printer{
		Name:        name,
		Description: normalizeDescription(req.Description),
		Location:    model.DefaultPrinterLocation,
		Status:      model.PrinterAvailable,
	}
	if req.Location != nil && strings.TrimSpace(*req.Location) != "" {
		printer.Location = strings.TrimSpace(*req.Location)
	}
	if req.Status != "" {
		printer.Status = req.Status
	}

	if err := s.repo.Printer.Create(ctx, printer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPrinterNameTaken
		}
		s.logger.Error("创建打印机失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Action:     model.AuditPrinterCreate,
		EntityType: model.EntityPrinter,
		EntityID:   printer.ID,
		ActorID:    callerID,
		NewValues:  toPrinterResponse(printer),
		IPAddress:  clientIPFrom(ctx),
	})

	return toPrinterResponse(printer), nil
}

// ────────────────────── Update ──────────────────────

func (s *printerService) Update(ctx context.Context, id string, req *dto.UpdatePrinterRequest, callerID string) (*dto.PrinterResponse, error) {
	printer, err := s.getPrinter(ctx, id)
	if err != nil {
		return nil, err
	}
	before := toPrinterResponse(printer)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != printer.Name {
			if err := s.ensureNameFree(ctx, name, printer.ID); err != nil {
				return nil, err
			}
			printer.Name = name
		}
	}
	if req.Description != nil {
		printer.Description = normalizeDescription(req.Description)
	}
	if req.Location != nil {
		printer.Location = strings.TrimSpace(*req.Location)
	}
	if req.Status != nil {
		printer.Status = *req.Status
	}

	if err := s.repo.Printer.Update(ctx, printer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPrinterNameTaken
		}
		s.logger.Error("更新打印机失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	after := toPrinterResponse(printer)
	s.audit.Record(AuditEvent{
		Action:     model.AuditPrinterUpdate,
		EntityType: model.EntityPrinter,
		EntityID:   printer.ID,
		ActorID:    callerID,
		OldValues:  before,
		NewValues:  after,
		IPAddress:  clientIPFrom(ctx),
	})

	return after, nil
}

// ────────────────────── Delete ──────────────────────

func (s *printerService) Delete(ctx context.Context, id string, callerID string) error {
	unlock := s.locks.Lock(printerLockKey(id))
	defer unlock()

	var removed *model.Printer
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		printer, err := tx.Printer.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPrinterNotFound
			}
			return err
		}

		upcoming, err := tx.Reservation.CountUpcomingByPrinter(ctx, id, s.now())
		if err != nil {
			return err
		}
		if upcoming > 0 {
			return pkgerrors.Newf(pkgerrors.KindPrinterInUse,
				"printer has %d upcoming reservations, cancel them first", upcoming)
		}

		if err := tx.Reservation.DeleteByPrinter(ctx, id); err != nil {
			return err
		}
		if err := tx.Printer.Delete(ctx, id); err != nil {
			return err
		}
		removed = printer
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("删除打印机失败", zap.String("id", id), zap.Error(err))
		}
		return err
	}

	s.audit.Record(AuditEvent{
		Action:     model.AuditPrinterDelete,
		EntityType: model.EntityPrinter,
		EntityID:   removed.ID,
		ActorID:    callerID,
		OldValues:  toPrinterResponse(removed),
		IPAddress:  clientIPFrom(ctx),
	})
	return nil
}

// ────────────────────── Reservations ──────────────────────

func (s *printerService) Reservations(ctx context.Context, id string, req *dto.PrinterReservationsRequest) ([]dto.ReservationResponse, error) {
	if _, err := s.getPrinter(ctx, id); err != nil {
		return nil, err
	}

	from, to, err := s.window(req)
	if err != nil {
		return nil, err
	}

	reservations, err := s.repo.Reservation.ListActiveInWindow(ctx, id, from, to)
	if err != nil {
		s.logger.Error("查询打印机预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toReservationResponses(reservations), nil
}

// ── 内部辅助方法 ──

func (s *printerService) getPrinter(ctx context.Context, id string) (*model.Printer, error) {
	printer, err := s.repo.Printer.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrinterNotFound
		}
		s.logger.Error("查询打印机失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return printer, nil
}

func (s *printerService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.Printer.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询打印机名称失败", zap.String("name", name), zap.Error(err))
		return err
	}
	if existing.ID != selfID {
		return ErrPrinterNameTaken
	}
	return nil
}

func (s *printerService) window(req *dto.PrinterReservationsRequest) (time.Time, time.Time, error) {
	local := s.now().In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, s.calendarDays)

	if req != nil {
		start, err := parseDateParam(req.StartDate, s.loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := parseDateParam(req.EndDate, s.loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if start != nil {
			from = *start
			if end == nil {
				to = from.AddDate(0, 0, s.calendarDays)
			}
		}
		if end != nil {
			to = *end
		}
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, ErrInvalidTimeRange
	}
	return from, to, nil
}

func toPrinterResponse(p *model.Printer) *dto.PrinterResponse {
	return &dto.PrinterResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Location:    p.Location,
		Status:      p.Status,
		CreatedAt:   dto.FormatTime(p.CreatedAt),
		UpdatedAt:   dto.FormatTime(p.UpdatedAt),
	}
}
