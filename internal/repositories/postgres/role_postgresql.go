package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/domcom/access-service/internal/cache"
	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
)

// RolePostgreSQL implements repositories.RoleRepository
type RolePostgreSQL struct {
	db          *gorm.DB
	cacheHelper *cache.CacheHelper
}

func NewRolePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.RoleRepository {
	return &RolePostgreSQL{
		db:          db,
		cacheHelper: cache.NewCacheHelper(redisClient, cache.RolesCacheConfig.Prefix),
	}
}

func (r *RolePostgreSQL) GetRoles(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role

	err := r.cacheHelper.CacheOrExecute(ctx, userID, &roles, cache.RolesCacheConfig.TTL, func() (interface{}, error) {
		fetched, err := r.fetchRoles(ctx, userID)
		if err != nil {
			return nil, err
		}
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}

	return roles, nil
}

func (r *RolePostgreSQL) fetchRoles(ctx context.Context, userID string) ([]models.Role, error) {
	var assignments []models.RoleAssignment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("role ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	roles := make([]models.Role, 0, len(assignments))
	for _, a := range assignments {
		roles = append(roles, a.Role)
	}
	return roles, nil
}

func (r *RolePostgreSQL) GetRolesBatch(ctx context.Context, userIDs []string) (map[string][]models.Role, error) {
	result := make(map[string][]models.Role, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var assignments []models.RoleAssignment
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load roles batch: %w", err)
	}

	for _, a := range assignments {
		result[a.UserID] = append(result[a.UserID], a.Role)
	}
	return result, nil
}

// Replace deletes the old assignment rows and inserts the new set.
// Callers wrap it in WithTransaction so the swap is atomic.
func (r *RolePostgreSQL) Replace(ctx context.Context, userID string, roles []models.Role, grantedBy string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RoleAssignment{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear role assignments: %w", err)
	}

	if len(roles) > 0 {
		now := time.Now()
		assignments := make([]models.RoleAssignment, 0, len(roles))
		for _, role := range roles {
			assignments = append(assignments, models.RoleAssignment{
				UserID:    userID,
				Role:      role,
				GrantedBy: grantedBy,
				CreatedAt: now,
			})
		}
		if err := r.db.WithContext(ctx).Create(&assignments).Error; err != nil {
			return fmt.Errorf("failed to insert role assignments: %w", err)
		}
	}

	cache.SafeDelete(ctx, r.cacheHelper, userID)
	return nil
}
