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

// ReservationService 预约调度引擎
// 预约状态的唯一修改入口，所有策略检查在写入时完成
type ReservationService interface {
	Create(ctx context.Context, req *dto.CreateReservationRequest, callerID string) (*dto.ReservationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ReservationResponse, error)
	List(ctx context.Context, req *dto.ReservationListRequest) ([]dto.ReservationResponse, error)
	ListByUser(ctx context.Context, userID string) ([]dto.ReservationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateReservationRequest, callerID, callerRole string) (*dto.ReservationResponse, error)
	// Cancel 对已取消的预约重复取消是无副作用的空操作
	Cancel(ctx context.Context, id string, callerID, callerRole string) (*dto.ReservationResponse, error)
	// Delete 物理删除；仅 ADMIN 可调用，由路由层校验
	Delete(ctx context.Context, id string, callerID string) error
}

type reservationService struct {
	repo     *repository.Repository
	locks    *KeyedMutex
	audit    AuditSink
	defaults Policy
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewReservationService 创建 ReservationService 实例
// loc 为判断周末与解析日期过滤条件所用的时区
func NewReservationService(
	repo *repository.Repository,
	locks *KeyedMutex,
	audit AuditSink,
	defaults Policy,
	loc *time.Location,
	logger *zap.Logger,
) ReservationService {
	if loc == nil {
		loc = time.UTC
	}
	return &reservationService{
		repo:     repo,
		locks:    locks,
		audit:    audit,
		defaults: defaults,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// reservationSnapshot 审计快照中的预约核心字段
type reservationSnapshot struct {
	PrinterID   string    `json:"printer_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// ────────────────────── Create ──────────────────────

func (s *reservationService) Create(ctx context.Context, req *dto.CreateReservationRequest, callerID string) (*dto.ReservationResponse, error) {
	now := s.now()
	start, end := req.StartTime.UTC(), req.EndTime.UTC()

	// 1-2. 纯时间检查
	if start.Before(now) {
		return nil, ErrInvalidStartTime
	}
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	unlock := s.locks.Lock(printerLockKey(req.PrinterID), userLockKey(callerID))
	defer unlock()

	reservation := &model.Reservation{
		UserID:      callerID,
		PrinterID:   req.PrinterID,
		StartTime:   start,
		EndTime:     end,
		Description: normalizeDescription(req.Description),
		Status:      model.ReservationConfirmed,
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 停用账号在 Token 过期前也不能预约
		if err := ensureActive(ctx, tx.User, callerID); err != nil {
			return err
		}

		policy, err := loadPolicy(ctx, tx.Settings, s.defaults)
		if err != nil {
			return err
		}

		// 3. 时长上限（恰好等于上限允许）
		if end.Sub(start) > time.Duration(policy.MaxReservationHours)*time.Hour {
			return pkgerrors.Newf(pkgerrors.KindDurationExceeded,
				"reservation cannot be longer than %d hours", policy.MaxReservationHours)
		}

		// 4. 周末规则
		if !policy.AllowWeekendReservations && (s.isWeekend(start) || s.isWeekend(end)) {
			return ErrWeekendNotAllowed
		}

		// 5-6. 打印机存在且可预约
		printer, err := tx.Printer.GetByIDForUpdate(ctx, req.PrinterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPrinterNotFound
			}
			return err
		}
		if !printer.IsBookable() {
			return ErrPrinterNotAvailable
		}

		// 7. 重叠检测
		if err := checkSlotFree(ctx, tx.Reservation, req.PrinterID, start, end, ""); err != nil {
			return err
		}

		// 8. 用户配额
		active, err := tx.Reservation.CountActiveByUser(ctx, callerID, now)
		if err != nil {
			return err
		}
		if active >= int64(policy.MaxReservationsPerUser) {
			return pkgerrors.Newf(pkgerrors.KindMaxReservationsExceeded,
				"you can have at most %d active reservations", policy.MaxReservationsPerUser)
		}

		// 9. 写入
		if err := tx.Reservation.Create(ctx, reservation); err != nil {
			return err
		}
		reservation.Printer = printer
		return nil
	})
	if err != nil {
		return nil, s.fail("创建预约失败", err, zap.String("printer_id", req.PrinterID), zap.String("user_id", callerID))
	}

	s.audit.Record(AuditEvent{
		Action:     model.AuditReservationCreate,
		EntityType: model.EntityReservation,
		EntityID:   reservation.ID,
		ActorID:    callerID,
		NewValues:  snapshotOf(reservation),
		IPAddress:  clientIPFrom(ctx),
	})

	return toReservationResponse(reservation), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *reservationService) GetByID(ctx context.Context, id string) (*dto.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toReservationResponse(reservation), nil
}

// ────────────────────── List ──────────────────────

func (s *reservationService) List(ctx context.Context, req *dto.ReservationListRequest) ([]dto.ReservationResponse, error) {
	filter := repository.ReservationFilter{
		PrinterID: req.PrinterID,
		UserID:    req.UserID,
		Status:    req.Status,
	}
	var err error
	if filter.StartFrom, err = parseDateParam(req.StartDate, s.loc); err != nil {
		return nil, err
	}
	if filter.StartTo, err = parseDateParam(req.EndDate, s.loc); err != nil {
		return nil, err
	}

	reservations, err := s.repo.Reservation.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出预约失败", zap.Error(err))
		return nil, err
	}
	return toReservationResponses(reservations), nil
}

func (s *reservationService) ListByUser(ctx context.Context, userID string) ([]dto.ReservationResponse, error) {
	reservations, err := s.repo.Reservation.List(ctx, repository.ReservationFilter{UserID: userID, NewestFirst: true})
	if err != nil {
		s.logger.Error("列出用户预约失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toReservationResponses(reservations), nil
}

// ────────────────────── Update ──────────────────────

// Update 只对新时间窗口重新做重叠检测，并保持 end > start 的记录不变量
// 时长、周末与过去时间的检查只在创建时进行
func (s *reservationService) Update(ctx context.Context, id string, req *dto.UpdateReservationRequest, callerID, callerRole string) (*dto.ReservationResponse, error) {
	current, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	unlock := s.locks.Lock(printerLockKey(current.PrinterID))
	defer unlock()

	var before reservationSnapshot
	var updated *model.Reservation

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		reservation, err := tx.Reservation.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if err := ensureActive(ctx, tx.User, callerID); err != nil {
			return err
		}
		if !canManage(reservation, callerID, callerRole) {
			return ErrNotOwner
		}
		before = snapshotOf(reservation)

		if req.StartTime != nil || req.EndTime != nil {
			start, end := reservation.StartTime, reservation.EndTime
			if req.StartTime != nil {
				start = req.StartTime.UTC()
			}
			if req.EndTime != nil {
				end = req.EndTime.UTC()
			}
			if !end.After(start) {
				return ErrInvalidTimeRange
			}
			if err := checkSlotFree(ctx, tx.Reservation, reservation.PrinterID, start, end, reservation.ID); err != nil {
				return err
			}
			reservation.StartTime, reservation.EndTime = start, end
		}
		if req.Description != nil {
			reservation.Description = normalizeDescription(req.Description)
		}

		if err := tx.Reservation.Update(ctx, reservation); err != nil {
			return err
		}
		updated = reservation
		return nil
	})
	if err != nil {
		return nil, s.fail("更新预约失败", err, zap.String("id", id))
	}

	after := snapshotOf(updated)
	s.audit.Record(AuditEvent{
		Action:     model.AuditReservationUpdate,
		EntityType: model.EntityReservation,
		EntityID:   updated.ID,
		ActorID:    callerID,
		OldValues:  windowOf(before),
		NewValues:  windowOf(after),
		IPAddress:  clientIPFrom(ctx),
	})

	return toReservationResponse(updated), nil
}

// ────────────────────── Cancel ──────────────────────

func (s *reservationService) Cancel(ctx context.Context, id string, callerID, callerRole string) (*dto.ReservationResponse, error) {
	var previousStatus string
	var reservation *model.Reservation
	changed := false

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		r, err := tx.Reservation.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if err := ensureActive(ctx, tx.User, callerID); err != nil {
			return err
		}
		if !canManage(r, callerID, callerRole) {
			return ErrNotOwner
		}
		reservation = r
		previousStatus = r.Status

		if r.Status == model.ReservationCancelled {
			return nil
		}

		r.Status = model.ReservationCancelled
		if err := tx.Reservation.Update(ctx, r); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, s.fail("取消预约失败", err, zap.String("id", id))
	}

	if changed {
		s.audit.Record(AuditEvent{
			Action:     model.AuditReservationCancel,
			EntityType: model.EntityReservation,
			EntityID:   reservation.ID,
			ActorID:    callerID,
			OldValues:  map[string]string{"status": previousStatus},
			NewValues:  map[string]string{"status": model.ReservationCancelled},
			IPAddress:  clientIPFrom(ctx),
		})
	}

	return toReservationResponse(reservation), nil
}

// ────────────────────── Delete ──────────────────────

func (s *reservationService) Delete(ctx context.Context, id string, callerID string) error {
	var removed *model.Reservation

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		r, err := tx.Reservation.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if err := tx.Reservation.Delete(ctx, id); err != nil {
			return err
		}
		removed = r
		return nil
	})
	if err != nil {
		return s.fail("删除预约失败", err, zap.String("id", id))
	}

	s.audit.Record(AuditEvent{
		Action:     model.AuditReservationDelete,
		EntityType: model.EntityReservation,
		EntityID:   removed.ID,
		ActorID:    callerID,
		OldValues:  snapshotOf(removed),
		IPAddress:  clientIPFrom(ctx),
	})
	return nil
}

// ── 内部辅助方法 ──

// fail 业务错误原样返回，其余错误记录日志
func (s *reservationService) fail(msg string, err error, fields ...zap.Field) error {
	if errors.Is(err, ErrTimeSlotTaken) {
		// 数据库排他约束兜底命中
		return ErrTimeSlotTaken
	}
	if pkgerrors.KindOf(err) != pkgerrors.KindInternal {
		return err
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
	return err
}

func (s *reservationService) isWeekend(t time.Time) bool {
	switch t.In(s.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// ensureActive 调用者账号必须存在且处于启用状态
func ensureActive(ctx context.Context, users repository.UserRepository, userID string) error {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountDisabled
		}
		return err
	}
	if !user.IsActive {
		return ErrAccountDisabled
	}
	return nil
}

// canManage 本人或 STAFF/ADMIN 可以修改、取消预约
func canManage(r *model.Reservation, callerID, callerRole string) bool {
	return r.UserID == callerID || model.IsPrivileged(callerRole)
}

func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func snapshotOf(r *model.Reservation) reservationSnapshot {
	return reservationSnapshot{
		PrinterID:   r.PrinterID,
		UserID:      r.UserID,
		StartTime:   r.StartTime.UTC(),
		EndTime:     r.EndTime.UTC(),
		Description: r.Description,
		Status:      r.Status,
	}
}

// windowOf 更新审计只记录时间窗口与描述
func windowOf(s reservationSnapshot) reservationSnapshot {
	return reservationSnapshot{StartTime: s.StartTime, EndTime: s.EndTime, Description: s.Description}
}

// parseDateParam 支持 2006-01-02（按调度时区零点）与 RFC3339
func parseDateParam(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return nil, ErrInvalidDateFilter
	}
	return &t, nil
}

func toReservationResponse(r *model.Reservation) *dto.ReservationResponse {
	resp := &dto.ReservationResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		PrinterID:   r.PrinterID,
		StartTime:   dto.FormatTime(r.StartTime),
		EndTime:     dto.FormatTime(r.EndTime),
		Description: r.Description,
		Status:      r.Status,
		Version:     r.Version,
		CreatedAt:   dto.FormatTime(r.CreatedAt),
		UpdatedAt:   dto.FormatTime(r.UpdatedAt),
	}
	if r.User != nil {
		resp.User = &dto.UserBrief{
			ID:        r.User.ID,
			Email:     r.User.Email,
			FirstName: r.User.FirstName,
			LastName:  r.User.LastName,
		}
	}
	if r.Printer != nil {
		resp.Printer = &dto.PrinterBrief{
			ID:       r.Printer.ID,
			Name:     r.Printer.Name,
			Location: r.Printer.Location,
			Status:   r.Printer.Status,
		}
	}
	return resp
}

func toReservationResponses(reservations []model.Reservation) []dto.ReservationResponse {
	result := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		result = append(result, *toReservationResponse(&reservations[i]))
	}
	return result
}
