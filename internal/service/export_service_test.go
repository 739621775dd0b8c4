package service

import (
	"context"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
)

// ── 测试辅助 ──

func setupExportService(t *testing.T) (ExportService, *mockRepos, *model.Printer) {
	t.Helper()
	repo, repos := newMockRepository()
	svc := NewExportService(repo, helsinki(t), zap.NewNop())
	svc.(*exportService).now = func() time.Time { return testNow }

	printer := &model.Printer{Name: "Ultimaker 3 #1", Location: model.DefaultPrinterLocation, Status: model.PrinterAvailable}
	require.NoError(t, repos.printers.Create(context.Background(), printer))
	return svc, repos, printer
}

// ── ExportReservations 测试 ──

func TestExportService_ExportReservations(t *testing.T) {
	svc, repos, printer := setupExportService(t)
	user := seedUser(t, repos, "opiskelija@edu.vamk.fi", model.RoleStudent)

	desc := "Kotelo, PLA"
	r := seedReservation(t, repos, printer.ID, user.ID, tomorrowAt(10), tomorrowAt(12), model.ReservationConfirmed)
	r.Description = &desc
	require.NoError(t, repos.reservations.Update(context.Background(), r))
	seedReservation(t, repos, printer.ID, user.ID, tomorrowAt(13), tomorrowAt(14), model.ReservationCancelled)

	buf, filename, err := svc.ExportReservations(context.Background(), &dto.ReservationListRequest{})
	require.NoError(t, err)
	assert.Equal(t, "reservations_20261019.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Reservations")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Printer", rows[0][0])
	assert.Equal(t, "Ultimaker 3 #1", rows[1][0])
	assert.Equal(t, "opiskelija@edu.vamk.fi", rows[1][3])
	// 赫尔辛基时间 UTC+3
	assert.Equal(t, "2026-10-20 13:00", rows[1][4])
	assert.Equal(t, "2", rows[1][6])
	assert.Equal(t, model.ReservationConfirmed, rows[1][7])
	assert.Equal(t, desc, rows[1][8])
	assert.Equal(t, model.ReservationCancelled, rows[2][7])

	idx, err := f.GetSheetIndex("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, -1, idx, "默认 Sheet1 应被删除")
}

func TestExportService_ExportReservations_Filtered(t *testing.T) {
	svc, repos, printer := setupExportService(t)
	seedReservation(t, repos, printer.ID, "user-a", tomorrowAt(10), tomorrowAt(11), model.ReservationConfirmed)
	seedReservation(t, repos, printer.ID, "user-a", tomorrowAt(12), tomorrowAt(13), model.ReservationCancelled)

	buf, _, err := svc.ExportReservations(context.Background(), &dto.ReservationListRequest{Status: model.ReservationConfirmed})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Reservations")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "-", rows[1][2], "缺少用户信息时以 - 占位")

	_, _, err = svc.ExportReservations(context.Background(), &dto.ReservationListRequest{EndDate: "not-a-date"})
	assert.Same(t, ErrInvalidDateFilter, err)
}

// ── PrinterCalendar 测试 ──

func TestExportService_PrinterCalendar(t *testing.T) {
	svc, repos, printer := setupExportService(t)
	r := seedReservation(t, repos, printer.ID, "user-a", tomorrowAt(10), tomorrowAt(12), model.ReservationConfirmed)
	seedReservation(t, repos, printer.ID, "user-a", tomorrowAt(13), tomorrowAt(14), model.ReservationCancelled)
	beyond := testNow.Add(40 * 24 * time.Hour)
	seedReservation(t, repos, printer.ID, "user-a", beyond, beyond.Add(time.Hour), model.ReservationConfirmed)

	feed, err := svc.PrinterCalendar(context.Background(), printer.ID)
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(feed))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1, "只包含 30 天内的活跃预约")
	assert.Equal(t, r.ID+"@3d-tulostinvaraus", events[0].Id())

	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(tomorrowAt(10)))

	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	require.NotNil(t, summary)
	assert.Equal(t, "Ultimaker 3 #1 reserved", summary.Value)
	assert.Contains(t, feed, "X-WR-TIMEZONE:Europe/Helsinki")

	_, err = svc.PrinterCalendar(context.Background(), "missing")
	assert.Same(t, ErrPrinterNotFound, err)
}
