//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
	"github.com/2302304/3d-tulostinvaraus/pkg/database"
	pkgerrors "github.com/2302304/3d-tulostinvaraus/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup（需要真实 PostgreSQL：go test -tags integration）
// ═══════════════════════════════════════════════════════════

var pgDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=tulostinvaraus_test sslmode=disable TimeZone=UTC"
	}

	var err error
	pgDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := pgDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func setupPGData(t *testing.T) (*model.User, *model.Printer, func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	user := &model.User{
		Email:        fmt.Sprintf("it%d@edu.vamk.fi", suffix),
		PasswordHash: "$2a$10$placeholder",
		FirstName:    "Integration",
		LastName:     "Test",
		Role:         model.RoleStudent,
		IsActive:     true,
	}
	if err := pgDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	printer := &model.Printer{
		Name:     fmt.Sprintf("IT Printer %d", suffix),
		Location: model.DefaultPrinterLocation,
		Status:   model.PrinterAvailable,
	}
	if err := pgDB.WithContext(ctx).Create(printer).Error; err != nil {
		t.Fatalf("创建打印机失败: %v", err)
	}

	cleanup := func() {
		pgDB.Where("printer_id = ?", printer.ID).Delete(&model.Reservation{})
		pgDB.Where("id = ?", printer.ID).Delete(&model.Printer{})
		pgDB.Where("id = ?", user.ID).Delete(&model.User{})
	}
	return user, printer, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: 排他约束兜底
// ═══════════════════════════════════════════════════════════

func TestExclusionConstraint_RejectsOverlap(t *testing.T) {
	user, printer, cleanup := setupPGData(t)
	defer cleanup()

	repo := repository.NewRepository(pgDB)
	ctx := context.Background()
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)

	first := &model.Reservation{
		UserID: user.ID, PrinterID: printer.ID,
		StartTime: start, EndTime: start.Add(2 * time.Hour),
		Status: model.ReservationConfirmed,
	}
	if err := repo.Reservation.Create(ctx, first); err != nil {
		t.Fatalf("创建第一条预约失败: %v", err)
	}

	// 绕过应用层检查直接写入重叠区间
	second := &model.Reservation{
		UserID: user.ID, PrinterID: printer.ID,
		StartTime: start.Add(time.Hour), EndTime: start.Add(3 * time.Hour),
		Status: model.ReservationConfirmed,
	}
	err := repo.Reservation.Create(ctx, second)
	if !errors.Is(err, repository.ErrOverlapConstraint) {
		t.Fatalf("期望 ErrOverlapConstraint，实际: %v", err)
	}
	if pkgerrors.KindOf(err) != pkgerrors.KindTimeSlotTaken {
		t.Errorf("期望 KindTimeSlotTaken，实际: %s", pkgerrors.KindOf(err))
	}

	// 首尾相接不算重叠
	abutting := &model.Reservation{
		UserID: user.ID, PrinterID: printer.ID,
		StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour),
		Status: model.ReservationConfirmed,
	}
	if err := repo.Reservation.Create(ctx, abutting); err != nil {
		t.Fatalf("首尾相接的预约应成功: %v", err)
	}
}

func TestExclusionConstraint_IgnoresCancelled(t *testing.T) {
	user, printer, cleanup := setupPGData(t)
	defer cleanup()

	repo := repository.NewRepository(pgDB)
	ctx := context.Background()
	start := time.Now().Add(72 * time.Hour).Truncate(time.Hour)

	cancelled := &model.Reservation{
		UserID: user.ID, PrinterID: printer.ID,
		StartTime: start, EndTime: start.Add(2 * time.Hour),
		Status: model.ReservationCancelled,
	}
	if err := repo.Reservation.Create(ctx, cancelled); err != nil {
		t.Fatalf("创建已取消预约失败: %v", err)
	}

	active := &model.Reservation{
		UserID: user.ID, PrinterID: printer.ID,
		StartTime: start, EndTime: start.Add(2 * time.Hour),
		Status: model.ReservationConfirmed,
	}
	if err := repo.Reservation.Create(ctx, active); err != nil {
		t.Fatalf("已取消的预约不应占用时段: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction Rollback
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	user, printer, cleanup := setupPGData(t)
	defer cleanup()

	repo := repository.NewRepository(pgDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	start := time.Now().Add(96 * time.Hour).Truncate(time.Hour)
	res := &model.Reservation{
		UserID: user.ID, PrinterID: printer.ID,
		StartTime: start, EndTime: start.Add(time.Hour),
		Status: model.ReservationConfirmed,
	}
	if err := txRepo.Reservation.Create(ctx, res); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建预约失败: %v", err)
	}

	tx.Rollback()

	if _, err := repo.Reservation.GetByID(ctx, res.ID); err == nil {
		t.Fatal("期望回滚后查不到预约，但实际查到了")
	}
}
