package services

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
	"github.com/domcom/access-service/internal/validator"
)

// Request DTOs (aliases to validator package for validation tags)
type UpdateRolesRequest = validator.UpdateRolesRequest
type BlockUserRequest = validator.BlockUserRequest
type UnblockUserRequest = validator.UnblockUserRequest

// ===== RESPONSE DTOs =====

// UpdateRolesResult describes the outcome of a role set replacement
type UpdateRolesResult struct {
	UserID  string            `json:"user_id"`
	Roles   []models.Role     `json:"roles"`
	Added   []models.Role     `json:"added_roles"`
	Removed []models.Role     `json:"removed_roles"`
	Rank    models.RankConfig `json:"rank"`
}

// BlockResult describes a newly created or released block
type BlockResult struct {
	Block   *models.UserBlock `json:"block"`
	Message string            `json:"message"`
	Summary string            `json:"summary"`
}

// UserListResult is a paginated user listing with resolved ranks
type UserListResult struct {
	Users  []*models.UserResponse `json:"users"`
	Total  int64                  `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// ===== SERVICE INTERFACES =====

// RoleService manages role assignments and rank resolution
type RoleService interface {
	// UpdateRoles replaces the target's role set. Every role entering or
	// leaving the set must be assignable by the actor's highest rank.
	UpdateRoles(ctx context.Context, targetID string, req *UpdateRolesRequest, actorID string) (*UpdateRolesResult, error)

	GetRoles(ctx context.Context, userID string) ([]models.Role, error)
	GetRank(ctx context.Context, userID string) (*models.RankConfig, error)
}

// TrustService manages the block state machine
type TrustService interface {
	Block(ctx context.Context, targetID string, req *BlockUserRequest, actorID string) (*BlockResult, error)
	Unblock(ctx context.Context, targetID string, req *UnblockUserRequest, actorID string) (*BlockResult, error)
	Status(ctx context.Context, userID string) (*models.BlockStatusResponse, error)
	History(ctx context.Context, userID string) ([]*models.UserBlock, error)
}

// UserService provides the read surface over portal users
type UserService interface {
	List(ctx context.Context, filters repositories.UserFilters) (*UserListResult, error)
	Get(ctx context.Context, id string) (*models.UserResponse, error)
}

// AuditService exports block history for compliance review
type AuditService interface {
	ExportBlockHistory(ctx context.Context, userID string, actorID string) (*excelize.File, error)
}

// ===== SERVICE MANAGER =====

// ServiceManager provides access to all services
type ServiceManager interface {
	Role() RoleService
	Trust() TrustService
	User() UserService
	Audit() AuditService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
