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

// BlockPostgreSQL implements repositories.BlockRepository
type BlockPostgreSQL struct {
	db          *gorm.DB
	cacheHelper *cache.CacheHelper
}

func NewBlockPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.BlockRepository {
	return &BlockPostgreSQL{
		db:          db,
		cacheHelper: cache.NewCacheHelper(redisClient, cache.BlockCacheConfig.Prefix),
	}
}

func (r *BlockPostgreSQL) GetActive(ctx context.Context, userID string) (*models.UserBlock, error) {
	var block models.UserBlock
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND released_at IS NULL", userID).
		First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// Create inserts a new block row. The partial unique index on
// (user_id) WHERE released_at IS NULL rejects a second active block,
// which surfaces here as a duplicate-key error.
func (r *BlockPostgreSQL) Create(ctx context.Context, block *models.UserBlock) error {
	if err := r.db.WithContext(ctx).Create(block).Error; err != nil {
		return err
	}

	cache.SafeDelete(ctx, r.cacheHelper, block.UserID)
	return nil
}

// Release closes the active block. The WHERE released_at IS NULL guard
// makes concurrent unblocks race safely: exactly one wins, the rest
// see zero rows affected.
func (r *BlockPostgreSQL) Release(ctx context.Context, userID, releasedBy, reason string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserBlock{}).
		Where("user_id = ? AND released_at IS NULL", userID).
		Updates(map[string]interface{}{
			"released_at":    at,
			"released_by":    releasedBy,
			"release_reason": reason,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to release block: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		cache.SafeDelete(ctx, r.cacheHelper, userID)
	}

	return result.RowsAffected, nil
}

func (r *BlockPostgreSQL) History(ctx context.Context, userID string) ([]*models.UserBlock, error) {
	var blocks []*models.UserBlock
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&blocks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load block history: %w", err)
	}
	return blocks, nil
}
