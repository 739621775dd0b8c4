package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/2302304/3d-tulostinvaraus/internal/model"
)

// PrinterRepository 打印机数据访问接口
type PrinterRepository interface {
	Create(ctx context.Context, printer *model.Printer) error
	GetByID(ctx context.Context, id string) (*model.Printer, error)
	// GetByIDForUpdate 行级锁读取，必须在事务中调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.Printer, error)
	GetByName(ctx context.Context, name string) (*model.Printer, error)
	List(ctx context.Context) ([]model.Printer, error)
	Update(ctx context.Context, printer *model.Printer) error
	Delete(ctx context.Context, id string) error
}

type printerRepo struct {
	db *gorm.DB
}

// NewPrinterRepo 创建 PrinterRepository 实例
func NewPrinterRepo(db *gorm.DB) PrinterRepository {
	return &printerRepo{db: db}
}

func (r *printerRepo) Create(ctx context.Context, printer *model.Printer) error {
	return translateError(r.db.WithContext(ctx).Create(printer).Error)
}

func (r *printerRepo) GetByID(ctx context.Context, id string) (*model.Printer, error) {
	var printer model.Printer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&printer).Error; err != nil {
		return nil, err
	}
	return &printer, nil
}

func (r *printerRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Printer, error) {
	var printer model.Printer
	// sqlite 方言会忽略 FOR UPDATE
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&printer).Error
	if err != nil {
		return nil, err
	}
	return &printer, nil
}

func (r *printerRepo) GetByName(ctx context.Context, name string) (*model.Printer, error) {
	var printer model.Printer
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&printer).Error; err != nil {
		return nil, err
	}
	return &printer, nil
}

func (r *printerRepo) List(ctx context.Context) ([]model.Printer, error) {
	var printers []model.Printer
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&printers).Error; err != nil {
		return nil, err
	}
	return printers, nil
}

func (r *printerRepo) Update(ctx context.Context, printer *model.Printer) error {
	return translateError(r.db.WithContext(ctx).Save(printer).Error)
}

func (r *printerRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Printer{}).Error
}
