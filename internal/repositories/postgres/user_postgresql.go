package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/annolab/assessment-service/internal/cache"
	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// GetByID retrieves a user by ID. Not cached: role statuses must be
// read fresh before every status transition.
func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	db := u.getDB(tx)

	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email
func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	db := u.getDB(tx)

	var user models.User
	if err := db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// List retrieves users with optional name/email search and pagination
func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := u.getDB(tx)
	query := db.WithContext(ctx).Model(&models.User{})

	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// ExistsByID checks user existence with short-lived caching
func (u *UserPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	db := u.getDB(tx)
	cacheKey := fmt.Sprintf("user:%s", id)

	var exists bool
	err := u.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		if err := db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check user existence: %w", err)
		}
		return count > 0, nil
	})

	if err != nil {
		return false, err
	}

	return exists, nil
}

// UpdateRoleStatuses writes both role statuses behind a version guard.
// The update only lands when the stored status_version still equals
// expectedVersion; otherwise a concurrent writer won and the caller
// gets ErrStatusConflict.
func (u *UserPostgreSQL) UpdateRoleStatuses(ctx context.Context, tx *gorm.DB, id string, statuses models.RoleStatusPair, expectedVersion int) error {
	db := u.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND status_version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"annotator_status":    statuses.AnnotatorStatus,
			"micro_tasker_status": statuses.MicroTaskerStatus,
			"status_version":      expectedVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update role statuses: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Distinguish a missing user from a lost CAS race
		var count int64
		if err := db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to verify user after status update: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return repositories.ErrStatusConflict
	}

	cache.SafeDelete(ctx, u.cacheManager.User, fmt.Sprintf("id:%s", id))

	return nil
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}
