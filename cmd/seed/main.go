package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/2302304/3d-tulostinvaraus/config"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
	"github.com/2302304/3d-tulostinvaraus/pkg/database"
	applogger "github.com/2302304/3d-tulostinvaraus/pkg/logger"
)

// 演示账号，可通过环境变量覆盖密码
type seedUser struct {
	email, firstName, lastName, role, passwordEnv, password string
}

var seedUsers = []seedUser{
	{"admin@vamk.fi", "Admin", "Käyttäjä", model.RoleAdmin, "SEED_ADMIN_PASSWORD", "Admin123!"},
	{"staff@vamk.fi", "Henkilökunta", "Käyttäjä", model.RoleStaff, "SEED_STAFF_PASSWORD", "Staff123!"},
	{"opiskelija@edu.vamk.fi", "Opiskelija", "Testaaja", model.RoleStudent, "SEED_STUDENT_PASSWORD", "Student123!"},
}

// Technobothnia 的 Ultimaker 打印机
var seedPrinters = []struct{ name, description string }{
	{"Ultimaker S5", "Suurin tulostusalue, dual extrusion"},
	{"Ultimaker S3-1", "Kompakti, dual extrusion"},
	{"Ultimaker S3-2", "Kompakti, dual extrusion"},
	{"Ultimaker 3", "Dual extrusion"},
	{"Ultimaker 3ext", "Pidennetty tulostusalue, dual extrusion"},
}

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo := repository.NewRepository(db)
	if err := seed(ctx, repo, cfg, logger); err != nil {
		logger.Fatal("初始化数据失败", zap.Error(err))
	}
	logger.Info("数据库初始化完成")
}

// seed 可重复执行：已存在的记录保持不变
func seed(ctx context.Context, repo *repository.Repository, cfg *config.Config, logger *zap.Logger) error {
	return repo.Transaction(ctx, func(tx *repository.Repository) error {
		// ── 用户 ──
		for _, u := range seedUsers {
			if _, err := tx.User.GetByEmail(ctx, u.email); err == nil {
				logger.Info("用户已存在，跳过", zap.String("email", u.email))
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("查询用户 %s: %w", u.email, err)
			}

			password := os.Getenv(u.passwordEnv)
			if password == "" {
				password = u.password
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.Auth.BcryptCost)
			if err != nil {
				return fmt.Errorf("生成密码哈希: %w", err)
			}
			user := &model.User{
				Email:        u.email,
				PasswordHash: string(hash),
				FirstName:    u.firstName,
				LastName:     u.lastName,
				Role:         u.role,
				IsActive:     true,
			}
			if err := tx.User.Create(ctx, user); err != nil {
				return fmt.Errorf("创建用户 %s: %w", u.email, err)
			}
			logger.Info("用户已创建", zap.String("email", u.email), zap.String("role", u.role))
		}

		// ── 打印机 ──
		for _, p := range seedPrinters {
			if _, err := tx.Printer.GetByName(ctx, p.name); err == nil {
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("查询打印机 %s: %w", p.name, err)
			}
			description := p.description
			printer := &model.Printer{
				Name:        p.name,
				Description: &description,
				Location:    model.DefaultPrinterLocation,
				Status:      model.PrinterAvailable,
			}
			if err := tx.Printer.Create(ctx, printer); err != nil {
				return fmt.Errorf("创建打印机 %s: %w", p.name, err)
			}
			logger.Info("打印机已创建", zap.String("name", p.name))
		}

		// ── 系统策略 ──
		if _, err := tx.Settings.Get(ctx); err == nil {
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询系统策略: %w", err)
		}
		settings := &model.SystemSettings{
			MaxReservationsPerUser:   cfg.Scheduler.DefaultMaxReservations,
			MaxReservationHours:      cfg.Scheduler.DefaultMaxHours,
			AllowWeekendReservations: cfg.Scheduler.DefaultAllowWeekends,
		}
		if err := tx.Settings.Save(ctx, settings); err != nil {
			return fmt.Errorf("创建系统策略: %w", err)
		}
		logger.Info("系统策略已创建")
		return nil
	})
}
