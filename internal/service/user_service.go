package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/2302304/3d-tulostinvaraus/internal/dto"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/internal/repository"
)

// UserService 用户管理业务接口（ADMIN）
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	UpdateRole(ctx context.Context, id string, req *dto.UpdateRoleRequest, callerID string) (*dto.UserResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, callerID string) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	audit  AuditSink
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, audit AuditSink, logger *zap.Logger) UserService {
	return &userService{repo: repo, audit: audit, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.Role, req.Keyword, req.GetOffset(), req.GetLimit())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	counts, err := s.repo.Reservation.CountByUser(ctx)
	if err != nil {
		s.logger.Error("统计用户预约数失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp := toUserResponse(&users[i])
		n := counts[users[i].ID]
		resp.ReservationCount = &n
		result = append(result, *resp)
	}
	return result, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── UpdateRole ──────────────────────

func (s *userService) UpdateRole(ctx context.Context, id string, req *dto.UpdateRoleRequest, callerID string) (*dto.UserResponse, error) {
	if id == callerID {
		return nil, ErrCannotModifySelf
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	oldRole := user.Role
	user.Role = req.Role
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户角色失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Action:     model.AuditUserRoleChange,
		EntityType: model.EntityUser,
		EntityID:   user.ID,
		ActorID:    callerID,
		OldValues:  map[string]string{"role": oldRole},
		NewValues:  map[string]string{"role": user.Role},
		IPAddress:  clientIPFrom(ctx),
	})

	return toUserResponse(user), nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *userService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, callerID string) (*dto.UserResponse, error) {
	if id == callerID {
		return nil, ErrCannotModifySelf
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	oldActive := user.IsActive
	user.IsActive = *req.IsActive
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Action:     model.AuditUserStatusChange,
		EntityType: model.EntityUser,
		EntityID:   user.ID,
		ActorID:    callerID,
		OldValues:  map[string]bool{"is_active": oldActive},
		NewValues:  map[string]bool{"is_active": user.IsActive},
		IPAddress:  clientIPFrom(ctx),
	})

	return toUserResponse(user), nil
}

// ── 内部辅助方法 ──

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: dto.FormatTime(u.CreatedAt),
	}
}
