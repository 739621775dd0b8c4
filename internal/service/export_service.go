package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
	pkgerrors "github.com/2302304/3d-tulostinvaraus/pkg/errors"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindInternal, "failed to generate export file")

// calendarFeedDays 日历订阅覆盖的天数
const calendarFeedDays = 30

// ExportService 导出业务接口
//
// 设计说明：
//   - 预约列表导出为 Excel (.xlsx)，过滤条件与列表接口一致
//   - 打印机日历导出为 iCalendar，仅包含活跃预约，不含个人信息
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportReservations(ctx context.Context, req *dto.ReservationListRequest) (*bytes.Buffer, string, error)
	PrinterCalendar(ctx context.Context, printerID string) (string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportReservations — 导出预约为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReservations(ctx context.Context, req *dto.ReservationListRequest) (*bytes.Buffer, string, error) {
	filter := repository.ReservationFilter{
		PrinterID: req.PrinterID,
		UserID:    req.UserID,
		Status:    req.Status,
	}
	var err error
	if filter.StartFrom, err = parseDateParam(req.StartDate, s.loc); err != nil {
		return nil, "", err
	}
	if filter.StartTo, err = parseDateParam(req.EndDate, s.loc); err != nil {
		return nil, "", err
	}

	reservations, err := s.repo.Reservation.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询导出预约失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reservations"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"Printer", "Location", "User", "Email", "Start", "End", "Hours", "Status", "Description"}
	widths := []float64{22, 16, 24, 30, 18, 18, 8, 12, 40}
	for i, h := range headers {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, widths[i])
		f.SetCellValue(sheetName, cell(col, 1), h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for i := range reservations {
		r := &reservations[i]
		printerName, location, userName, email := "-", "-", "-", "-"
		if r.Printer != nil {
			printerName, location = r.Printer.Name, r.Printer.Location
		}
		if r.User != nil {
			userName = r.User.FirstName + " " + r.User.LastName
			email = r.User.Email
		}
		desc := ""
		if r.Description != nil {
			desc = *r.Description
		}

		values := []interface{}{
			printerName,
			location,
			userName,
			email,
			r.StartTime.In(s.loc).Format("2006-01-02 15:04"),
			r.EndTime.In(s.loc).Format("2006-01-02 15:04"),
			r.Duration().Hours(),
			r.Status,
			desc,
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("reservations_%s.xlsx", s.now().In(s.loc).Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// PrinterCalendar — 打印机预约日历 (iCalendar)
// ═══════════════════════════════════════════════════════════

func (s *exportService) PrinterCalendar(ctx context.Context, printerID string) (string, error) {
	printer, err := s.repo.Printer.GetByID(ctx, printerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrPrinterNotFound
		}
		s.logger.Error("查询打印机失败", zap.String("id", printerID), zap.Error(err))
		return "", err
	}

	now := s.now()
	local := now.In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, calendarFeedDays)

	reservations, err := s.repo.Reservation.ListActiveInWindow(ctx, printerID, from, to)
	if err != nil {
		s.logger.Error("查询打印机预约失败", zap.String("id", printerID), zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//3d-tulostinvaraus//printer calendar//EN")
	cal.SetXWRCalName(printer.Name)
	cal.SetXWRTimezone(s.loc.String())

	for i := range reservations {
		r := &reservations[i]
		event := cal.AddEvent(r.ID + "@3d-tulostinvaraus")
		event.SetDtStampTime(now.UTC())
		event.SetCreatedTime(r.CreatedAt.UTC())
		event.SetModifiedAt(r.UpdatedAt.UTC())
		event.SetStartAt(r.StartTime.UTC())
		event.SetEndAt(r.EndTime.UTC())
		event.SetSummary(fmt.Sprintf("%s reserved", printer.Name))
		event.SetLocation(printer.Location)
		if r.Description != nil {
			event.SetDescription(*r.Description)
		}
		if r.Status == model.ReservationConfirmed {
			event.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			event.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return cal.Serialize(), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
