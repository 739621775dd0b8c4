package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
)

// AuditEvent 一次状态变更的审计记录
type AuditEvent struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
	OldValues  interface{}
	NewValues  interface{}
	IPAddress  string
}

// AuditSink 审计写入端
// Record 永不阻塞也不返回错误；写入失败只记录日志
type AuditSink interface {
	Record(event AuditEvent)
	// Close 停止接收新事件并等待队列写完
	Close(ctx context.Context) error
}

type clientIPKey struct{}

// ContextWithClientIP 在请求上下文中携带客户端 IP，供审计记录使用
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// asyncAuditSink 有界队列 + 后台 worker
type asyncAuditSink struct {
	repo         repository.AuditLogRepository
	logger       *zap.Logger
	queue        chan *model.AuditLog
	done         chan struct{}
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewAuditSink 创建异步审计写入端并启动后台 worker
func NewAuditSink(repo repository.AuditLogRepository, logger *zap.Logger, bufferSize int) AuditSink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &asyncAuditSink{
		repo:         repo,
		logger:       logger,
		queue:        make(chan *model.AuditLog, bufferSize),
		done:         make(chan struct{}),
		writeTimeout: 5 * time.Second,
	}
	go s.run()
	return s
}

func (s *asyncAuditSink) Record(event AuditEvent) {
	entry := s.toEntry(event)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.logger.Warn("审计写入端已关闭，丢弃事件",
			zap.String("action", event.Action), zap.String("entity_id", event.EntityID))
		return
	}

	select {
	case s.queue <- entry:
	default:
		s.logger.Warn("审计队列已满，丢弃事件",
			zap.String("action", event.Action), zap.String("entity_id", event.EntityID))
	}
}

func (s *asyncAuditSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *asyncAuditSink) run() {
	defer close(s.done)
	for entry := range s.queue {
		s.write(entry)
	}
}

func (s *asyncAuditSink) write(entry *model.AuditLog) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("审计写入 panic", zap.Any("panic", r), zap.String("action", entry.Action))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("写入审计日志失败",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err),
		)
	}
}

func (s *asyncAuditSink) toEntry(event AuditEvent) *model.AuditLog {
	entry := &model.AuditLog{
		Action:     event.Action,
		EntityType: event.EntityType,
		OldValues:  s.marshal(event.OldValues),
		NewValues:  s.marshal(event.NewValues),
		CreatedAt:  time.Now().UTC(),
	}
	if event.EntityID != "" {
		id := event.EntityID
		entry.EntityID = &id
	}
	if event.ActorID != "" {
		actor := event.ActorID
		entry.UserID = &actor
	}
	if event.IPAddress != "" {
		ip := event.IPAddress
		entry.IPAddress = &ip
	}
	return entry
}

func (s *asyncAuditSink) marshal(v interface{}) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("序列化审计快照失败", zap.Error(err))
		return nil
	}
	str := string(b)
	return &str
}
