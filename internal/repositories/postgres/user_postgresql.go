package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/domcom/access-service/internal/cache"
	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
)

// UserPostgreSQL implements repositories.UserRepository
type UserPostgreSQL struct {
	db          *gorm.DB
	cacheHelper *cache.CacheHelper
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:          db,
		cacheHelper: cache.NewCacheHelper(redisClient, "user:"),
	}
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	cacheKey := fmt.Sprintf("id:%s", id)
	err := r.cacheHelper.CacheOrExecute(ctx, cacheKey, &user, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var fetched models.User
		if err := r.db.WithContext(ctx).First(&fetched, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &fetched, nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	query = r.applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = r.applyPaginationAndSort(query, filters)

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserPostgreSQL) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *UserPostgreSQL) applyFilters(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	if filters.Query != nil && *filters.Query != "" {
		pattern := "%" + *filters.Query + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}
	if filters.Role != nil {
		query = query.Where("id IN (?)",
			r.db.Model(&models.RoleAssignment{}).
				Select("user_id").
				Where("role = ?", *filters.Role))
	}
	if filters.Blocked != nil {
		sub := r.db.Model(&models.UserBlock{}).
			Select("user_id").
			Where("released_at IS NULL")
		if *filters.Blocked {
			query = query.Where("id IN (?)", sub)
		} else {
			query = query.Where("id NOT IN (?)", sub)
		}
	}
	return query
}

func (r *UserPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"full_name":  true,
		"email":      true,
	}

	sortBy := filters.SortBy
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := "DESC"
	if filters.SortOrder == "asc" || filters.SortOrder == "ASC" {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	return query
}
