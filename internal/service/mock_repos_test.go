package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
	pkgerrors "github.com/2302304/3d-tulostinvaraus/pkg/errors"
)

var mockSeq atomic.Int64

func nextMockID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, mockSeq.Add(1))
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = nextMockID("user")
	}
	user.CreatedAt = time.Now().UTC()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role, _ string, offset, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	total := int64(len(result))
	if offset >= len(result) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

// ── Mock PrinterRepository ──

type mockPrinterRepo struct {
	mu       sync.Mutex
	printers map[string]*model.Printer
}

func newMockPrinterRepo() *mockPrinterRepo {
	return &mockPrinterRepo{printers: make(map[string]*model.Printer)}
}

func (m *mockPrinterRepo) Create(_ context.Context, printer *model.Printer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.printers {
		if p.Name == printer.Name {
			return repository.ErrDuplicate
		}
	}
	if printer.ID == "" {
		printer.ID = nextMockID("printer")
	}
	cp := *printer
	m.printers[printer.ID] = &cp
	return nil
}

func (m *mockPrinterRepo) GetByID(_ context.Context, id string) (*model.Printer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.printers[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPrinterRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Printer, error) {
	return m.GetByID(ctx, id)
}

func (m *mockPrinterRepo) GetByName(_ context.Context, name string) (*model.Printer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.printers {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPrinterRepo) List(_ context.Context) ([]model.Printer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Printer
	for _, p := range m.printers {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockPrinterRepo) Update(_ context.Context, printer *model.Printer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *printer
	m.printers[printer.ID] = &cp
	return nil
}

func (m *mockPrinterRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.printers, id)
	return nil
}

// ── Mock ReservationRepository ──

type mockReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]*model.Reservation
	printers     *mockPrinterRepo
	users        *mockUserRepo

	// createErr 非 nil 时 Create 直接返回该错误
	createErr error
}

func newMockReservationRepo(printers *mockPrinterRepo, users *mockUserRepo) *mockReservationRepo {
	return &mockReservationRepo{
		reservations: make(map[string]*model.Reservation),
		printers:     printers,
		users:        users,
	}
}

func (m *mockReservationRepo) Create(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if r.ID == "" {
		r.ID = nextMockID("res")
	}
	if r.Version == 0 {
		r.Version = 1
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	cp := *r
	cp.User, cp.Printer = nil, nil
	m.reservations[r.ID] = &cp
	return nil
}

func (m *mockReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	r, ok := m.reservations[id]
	var cp model.Reservation
	if ok {
		cp = *r
	}
	m.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.preload(ctx, &cp)
	return &cp, nil
}

func (m *mockReservationRepo) preload(ctx context.Context, r *model.Reservation) {
	if m.printers != nil {
		if p, err := m.printers.GetByID(ctx, r.PrinterID); err == nil {
			r.Printer = p
		}
	}
	if m.users != nil {
		if u, err := m.users.GetByID(ctx, r.UserID); err == nil {
			r.User = u
		}
	}
}

func (m *mockReservationRepo) Update(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reservations[r.ID]
	if !ok || stored.Version != r.Version {
		return pkgerrors.ErrOptimisticLock
	}
	r.Version++
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	cp.User, cp.Printer = nil, nil
	m.reservations[r.ID] = &cp
	return nil
}

func (m *mockReservationRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reservations, id)
	return nil
}

func (m *mockReservationRepo) List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	m.mu.Lock()
	var result []model.Reservation
	for _, r := range m.reservations {
		if f.PrinterID != "" && r.PrinterID != f.PrinterID {
			continue
		}
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.StartFrom != nil && r.StartTime.Before(*f.StartFrom) {
			continue
		}
		if f.StartTo != nil && r.StartTime.After(*f.StartTo) {
			continue
		}
		result = append(result, *r)
	}
	m.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if f.NewestFirst {
			return result[i].StartTime.After(result[j].StartTime)
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	for i := range result {
		m.preload(ctx, &result[i])
	}
	return result, nil
}

func (m *mockReservationRepo) HasOverlap(_ context.Context, printerID string, start, end time.Time, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.PrinterID != printerID || r.ID == excludeID || !r.IsActive() {
			continue
		}
		if r.StartTime.Before(end) && r.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReservationRepo) CountActiveByUser(_ context.Context, userID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reservations {
		if r.UserID == userID && r.IsActive() && r.EndTime.After(now) {
			n++
		}
	}
	return n, nil
}

func (m *mockReservationRepo) CountUpcomingByPrinter(_ context.Context, printerID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reservations {
		if r.PrinterID == printerID && r.IsActive() && r.EndTime.After(now) {
			n++
		}
	}
	return n, nil
}

func (m *mockReservationRepo) ListActiveInWindow(_ context.Context, printerID string, from, to time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Reservation
	for _, r := range m.reservations {
		if r.PrinterID != printerID || !r.IsActive() {
			continue
		}
		if r.StartTime.Before(from) || r.EndTime.After(to) {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockReservationRepo) DeleteByPrinter(_ context.Context, printerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reservations {
		if r.PrinterID == printerID {
			delete(m.reservations, id)
		}
	}
	return nil
}

func (m *mockReservationRepo) CountByUser(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, r := range m.reservations {
		counts[r.UserID]++
	}
	return counts, nil
}

// ── Mock SettingsRepository ──

type mockSettingsRepo struct {
	mu       sync.Mutex
	settings *model.SystemSettings
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{}
}

func (m *mockSettingsRepo) Get(_ context.Context) (*model.SystemSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsRepo) Save(_ context.Context, s *model.SystemSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = nextMockID("settings")
	}
	s.UpdatedAt = time.Now().UTC()
	cp := *s
	m.settings = &cp
	return nil
}

// ── Mock AuditLogRepository ──

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
	err     error
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{}
}

func (m *mockAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if entry.ID == "" {
		entry.ID = nextMockID("audit")
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) List(_ context.Context, f repository.AuditFilter, offset, limit int) ([]model.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AuditLog
	for _, e := range m.entries {
		if f.EntityType != "" && e.EntityType != f.EntityType {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		result = append(result, e)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return []model.AuditLog{}, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockAuditRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]model.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AuditLog
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockAuditRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ── 同步记录的 AuditSink ──

type recordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingSink) Record(event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Close(_ context.Context) error { return nil }

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

func (s *recordingSink) last() AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return AuditEvent{}
	}
	return s.events[len(s.events)-1]
}

// ── 组装 ──

type mockRepos struct {
	users        *mockUserRepo
	printers     *mockPrinterRepo
	reservations *mockReservationRepo
	settings     *mockSettingsRepo
	audit        *mockAuditRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	printers := newMockPrinterRepo()
	m := &mockRepos{
		users:        users,
		printers:     printers,
		reservations: newMockReservationRepo(printers, users),
		settings:     newMockSettingsRepo(),
		audit:        newMockAuditRepo(),
	}
	repo := &repository.Repository{
		User:        m.users,
		Printer:     m.printers,
		Reservation: m.reservations,
		Settings:    m.settings,
		Audit:       m.audit,
	}
	return repo, m
}
