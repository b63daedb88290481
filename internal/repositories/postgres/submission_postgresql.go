package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annolab/assessment-service/internal/cache"
	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSubmissionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== WRITE OPERATIONS =====

// Create inserts a new submission record and invalidates the user's
// cached history and eligibility views
func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	cache.InvalidateSubmissionCache(ctx, s.cacheManager, submission.UserID)

	return nil
}

// UpdateReview updates only the review overlay fields of a submission.
// Scoring and snapshot columns are never touched after creation.
func (s *SubmissionPostgreSQL) UpdateReview(ctx context.Context, tx *gorm.DB, id uint, update repositories.ReviewUpdate, reviewedAt time.Time) error {
	db := s.getDB(tx)

	fields := map[string]interface{}{
		"reviewed_by": update.ReviewedBy,
		"reviewed_at": reviewedAt,
	}
	if update.ReviewNotes != nil {
		fields["review_notes"] = *update.ReviewNotes
	}
	if update.Flagged != nil {
		fields["flagged_for_review"] = *update.Flagged
	}
	if update.FlagReason != nil {
		fields["flag_reason"] = *update.FlagReason
	}

	result := db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update submission review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("submission %d: %w", id, repositories.ErrNotFound)
	}

	// The submission's owner is unknown here, clear by submission ID only
	cache.SafeDelete(ctx, s.cacheManager.Submission, fmt.Sprintf("id:%d", id))

	return nil
}

// ===== READ OPERATIONS =====

// GetByID retrieves a submission by ID with caching
func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentSubmission, error) {
	db := s.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var submission models.AssessmentSubmission

	err := s.cacheManager.Submission.CacheOrExecute(ctx, cacheKey, &submission, cache.SubmissionCacheConfig.TTL, func() (interface{}, error) {
		var dbSubmission models.AssessmentSubmission
		if err := db.WithContext(ctx).First(&dbSubmission, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("submission %d: %w", id, repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get submission: %w", err)
		}
		return &dbSubmission, nil
	})

	if err != nil {
		return nil, err
	}

	return &submission, nil
}

// GetLatestByUserAndType retrieves the most recent submission for a user
// and assessment type. Returns ErrNotFound when the user has none.
func (s *SubmissionPostgreSQL) GetLatestByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
	db := s.getDB(tx)

	var submission models.AssessmentSubmission
	if err := db.WithContext(ctx).
		Where("user_id = ? AND assessment_type = ?", userID, assessmentType).
		Order("created_at DESC").
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest submission: %w", err)
	}

	return &submission, nil
}

// GetBestByUserAndType retrieves the highest-scoring submission for a user
// and assessment type
func (s *SubmissionPostgreSQL) GetBestByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
	db := s.getDB(tx)

	var submission models.AssessmentSubmission
	if err := db.WithContext(ctx).
		Where("user_id = ? AND assessment_type = ?", userID, assessmentType).
		Order("score_percentage DESC, completed_at DESC").
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get best submission: %w", err)
	}

	return &submission, nil
}

// ListByUser retrieves a user's submissions with filters and pagination
func (s *SubmissionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, int64, error) {
	db := s.getDB(tx)
	query := db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("user_id = ?", userID)
	query = s.helpers.ApplySubmissionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "completed_at"
	}
	query = s.helpers.ApplyPaginationAndSort(query, sortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var submissions []*models.AssessmentSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}

	return submissions, total, nil
}

// CountByUserAndType counts a user's submissions for one assessment type
func (s *SubmissionPostgreSQL) CountByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (int64, error) {
	db := s.getDB(tx)

	var count int64
	if err := db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("user_id = ? AND assessment_type = ?", userID, assessmentType).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	return count, nil
}

// ===== STATISTICS =====

// GetStatsByUser aggregates a user's attempts per assessment type, cached
func (s *SubmissionPostgreSQL) GetStatsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]repositories.TypeStats, error) {
	db := s.getDB(tx)
	cacheKey := fmt.Sprintf("user:%s:type_stats", userID)

	var stats []repositories.TypeStats
	err := s.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var dbStats []repositories.TypeStats
		if err := db.WithContext(ctx).
			Model(&models.AssessmentSubmission{}).
			Select(`assessment_type,
				COUNT(*) as total_attempts,
				MAX(score_percentage) as best_score,
				AVG(score_percentage) as average_score,
				BOOL_OR(passed) as passed,
				MAX(completed_at) as last_attempt_at`).
			Where("user_id = ?", userID).
			Group("assessment_type").
			Find(&dbStats).Error; err != nil {
			return nil, fmt.Errorf("failed to get submission stats: %w", err)
		}
		return dbStats, nil
	})

	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ===== EXPORT =====

// ListForExport retrieves submissions for administrative export, newest first
func (s *SubmissionPostgreSQL) ListForExport(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, error) {
	db := s.getDB(tx)
	query := db.WithContext(ctx).Model(&models.AssessmentSubmission{})
	query = s.helpers.ApplySubmissionFilters(query, filters)
	query = query.Order("completed_at DESC")

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var submissions []*models.AssessmentSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to list submissions for export: %w", err)
	}

	return submissions, nil
}

// ===== HELPER METHODS =====

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
