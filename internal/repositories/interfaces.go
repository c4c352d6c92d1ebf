package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/domcom/access-service/internal/models"
)

// UserFilters for listing and searching users
type UserFilters struct {
	Query     *string
	Role      *models.Role
	Blocked   *bool
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// UserRepository handles portal user records
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	Create(ctx context.Context, user *models.User) error
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// RoleRepository handles role assignments
type RoleRepository interface {
	GetRoles(ctx context.Context, userID string) ([]models.Role, error)
	GetRolesBatch(ctx context.Context, userIDs []string) (map[string][]models.Role, error)

	// Replace swaps the user's whole role set in one statement pair.
	// Must run inside WithTransaction when claims depend on the old set.
	Replace(ctx context.Context, userID string, roles []models.Role, grantedBy string) error
}

// BlockRepository handles block records and their release
type BlockRepository interface {
	GetActive(ctx context.Context, userID string) (*models.UserBlock, error)
	Create(ctx context.Context, block *models.UserBlock) error

	// Release closes the active block with a conditional update.
	// Returns the number of rows affected; 0 means no active block
	// existed at the moment of the update.
	Release(ctx context.Context, userID, releasedBy, reason string, at time.Time) (int64, error)

	History(ctx context.Context, userID string) ([]*models.UserBlock, error)
}

// IsNotFoundError reports whether err is a missing-record error
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports whether err is a unique-constraint violation
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
