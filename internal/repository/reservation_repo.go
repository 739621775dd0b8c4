package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/2302304/3d-tulostinvaraus/internal/model"
	pkgerrors "github.com/2302304/3d-tulostinvaraus/pkg/errors"
)

// ReservationFilter 预约列表过滤条件，零值字段不参与过滤
// StartFrom/StartTo 作用于 start_time，闭区间
type ReservationFilter struct {
	PrinterID   string
	UserID      string
	Status      string
	StartFrom   *time.Time
	StartTo     *time.Time
	NewestFirst bool
}

// ReservationRepository 预约数据访问接口
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	// Update 基于 version 的乐观锁更新，冲突时返回 pkgerrors.ErrOptimisticLock
	Update(ctx context.Context, reservation *model.Reservation) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error)

	// HasOverlap 半开区间 [start, end) 与同一打印机上的活跃预约是否相交
	// excludeID 非空时排除该预约自身
	HasOverlap(ctx context.Context, printerID string, start, end time.Time, excludeID string) (bool, error)
	// CountActiveByUser 统计用户尚未结束的活跃预约数
	CountActiveByUser(ctx context.Context, userID string, now time.Time) (int64, error)
	// CountUpcomingByPrinter 统计打印机尚未结束的活跃预约数
	CountUpcomingByPrinter(ctx context.Context, printerID string, now time.Time) (int64, error)
	// ListActiveInWindow 完全落在 [from, to] 内的活跃预约，按开始时间升序
	ListActiveInWindow(ctx context.Context, printerID string, from, to time.Time) ([]model.Reservation, error)
	DeleteByPrinter(ctx context.Context, printerID string) error
	CountByUser(ctx context.Context) (map[string]int64, error)
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepo 创建 ReservationRepository 实例
func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, reservation *model.Reservation) error {
	reservation.StartTime = reservation.StartTime.UTC()
	reservation.EndTime = reservation.EndTime.UTC()
	if reservation.Version == 0 {
		reservation.Version = 1
	}
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(reservation).Error)
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Printer").
		Where("id = ?", id).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) Update(ctx context.Context, reservation *model.Reservation) error {
	oldVersion := reservation.Version
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND version = ?", reservation.ID, oldVersion).
		Updates(map[string]interface{}{
			"start_time":  reservation.StartTime.UTC(),
			"end_time":    reservation.EndTime.UTC(),
			"description": reservation.Description,
			"status":      reservation.Status,
			"version":     oldVersion + 1,
			"updated_at":  now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reservation.Version = oldVersion + 1
	reservation.UpdatedAt = now
	return nil
}

func (r *reservationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Reservation{}).Error
}

func (r *reservationRepo) List(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error) {
	db := r.db.WithContext(ctx).
		Preload("User").
		Preload("Printer")

	if filter.PrinterID != "" {
		db = db.Where("printer_id = ?", filter.PrinterID)
	}
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.StartFrom != nil {
		db = db.Where("start_time >= ?", filter.StartFrom.UTC())
	}
	if filter.StartTo != nil {
		db = db.Where("start_time <= ?", filter.StartTo.UTC())
	}
	if filter.NewestFirst {
		db = db.Order("start_time DESC")
	} else {
		db = db.Order("start_time ASC")
	}

	var reservations []model.Reservation
	if err := db.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepo) HasOverlap(ctx context.Context, printerID string, start, end time.Time, excludeID string) (bool, error) {
	db := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("printer_id = ?", printerID).
		Where("status IN ?", model.ActiveReservationStatuses).
		Where("start_time < ? AND end_time > ?", end.UTC(), start.UTC())
	if excludeID != "" {
		db = db.Where("id <> ?", excludeID)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *reservationRepo) CountActiveByUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("user_id = ?", userID).
		Where("status IN ?", model.ActiveReservationStatuses).
		Where("end_time > ?", now.UTC()).
		Count(&count).Error
	return count, err
}

func (r *reservationRepo) CountUpcomingByPrinter(ctx context.Context, printerID string, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("printer_id = ?", printerID).
		Where("status IN ?", model.ActiveReservationStatuses).
		Where("end_time > ?", now.UTC()).
		Count(&count).Error
	return count, err
}

func (r *reservationRepo) ListActiveInWindow(ctx context.Context, printerID string, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("printer_id = ?", printerID).
		Where("status IN ?", model.ActiveReservationStatuses).
		Where("start_time >= ? AND end_time <= ?", from.UTC(), to.UTC()).
		Order("start_time ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepo) DeleteByPrinter(ctx context.Context, printerID string) error {
	return r.db.WithContext(ctx).
		Where("printer_id = ?", printerID).
		Delete(&model.Reservation{}).Error
}

func (r *reservationRepo) CountByUser(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		UserID string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Select("user_id, COUNT(*) AS total").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Total
	}
	return counts, nil
}
