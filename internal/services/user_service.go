package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
)

type userService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) UserService {
	return &userService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// List returns a page of users with resolved ranks and block flags.
func (s *userService) List(ctx context.Context, filters repositories.UserFilters) (*UserListResult, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}

	rolesByUser, err := s.repo.Role().GetRolesBatch(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load role sets: %w", err)
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		u.Roles = rolesByUser[u.ID]
		blocked, err := s.isBlocked(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, &models.UserResponse{
			User:    u,
			Rank:    models.ResolveRankConfig(u.Roles),
			Blocked: blocked,
		})
	}

	return &UserListResult{
		Users:  responses,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

// Get returns one user with the resolved rank and block flag.
func (s *userService) Get(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	roles, err := s.repo.Role().GetRoles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	user.Roles = roles

	blocked, err := s.isBlocked(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.UserResponse{
		User:    user,
		Rank:    models.ResolveRankConfig(roles),
		Blocked: blocked,
	}, nil
}

func (s *userService) isBlocked(ctx context.Context, userID string) (bool, error) {
	_, err := s.repo.Block().GetActive(ctx, userID)
	if err == nil {
		return true, nil
	}
	if repositories.IsNotFoundError(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check block state: %w", err)
}
