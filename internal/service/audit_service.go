package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
)

// AuditService 审计日志查询接口（ADMIN）
type AuditService interface {
	List(ctx context.Context, req *dto.AuditListRequest) ([]dto.AuditLogResponse, int64, error)
	EntityHistory(ctx context.Context, entityType, entityID string) ([]dto.AuditLogResponse, error)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) List(ctx context.Context, req *dto.AuditListRequest) ([]dto.AuditLogResponse, int64, error) {
	filter := repository.AuditFilter{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		UserID:     req.UserID,
		Action:     req.Action,
	}
	var err error
	if filter.From, err = parseDateParam(req.StartDate, time.UTC); err != nil {
		return nil, 0, err
	}
	if filter.To, err = parseDateParam(req.EndDate, time.UTC); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.repo.Audit.List(ctx, filter, req.GetOffset(), req.GetLimit())
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, 0, err
	}
	return toAuditResponses(entries), total, nil
}

func (s *auditService) EntityHistory(ctx context.Context, entityType, entityID string) ([]dto.AuditLogResponse, error) {
	entries, err := s.repo.Audit.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		s.logger.Error("查询实体审计历史失败",
			zap.String("entity_type", entityType), zap.String("entity_id", entityID), zap.Error(err))
		return nil, err
	}
	return toAuditResponses(entries), nil
}

func toAuditResponses(entries []model.AuditLog) []dto.AuditLogResponse {
	result := make([]dto.AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, dto.AuditLogResponse{
			ID:         e.ID,
			UserID:     e.UserID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			OldValues:  rawJSON(e.OldValues),
			NewValues:  rawJSON(e.NewValues),
			IPAddress:  e.IPAddress,
			CreatedAt:  dto.FormatTime(e.CreatedAt),
		})
	}
	return result
}

func rawJSON(s *string) json.RawMessage {
	if s == nil || *s == "" {
		return nil
	}
	return json.RawMessage(*s)
}
