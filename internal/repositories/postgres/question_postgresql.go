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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new question and invalidates cache
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "list:*")
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "counts:*")

	return nil
}

// GetByID retrieves a question by ID with caching
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	// Try cache first for performance
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		return &dbQuestion, nil
	})

	if err != nil {
		return nil, err
	}

	return &question, nil
}

// Update updates a question
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID)

	return nil
}

// Deactivate marks a question inactive. Inactive questions are never
// sampled and fail validation when answered, but stay in place so that
// old submission snapshots keep a referent.
func (q *QuestionPostgreSQL) Deactivate(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, id)

	return nil
}

// ===== BULK OPERATIONS =====

// CreateBatch creates multiple questions in a single insert
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "list:*")
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "counts:*")

	return nil
}

// GetActiveByIDs retrieves active questions matching the given IDs.
// Missing or inactive IDs are simply absent from the result; callers
// compare lengths to detect them.
func (q *QuestionPostgreSQL) GetActiveByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}

	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions by IDs: %w", err)
	}

	return questions, nil
}

// ===== QUERY OPERATIONS =====

// List retrieves questions with filters and pagination
func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Question{})
	query = q.helpers.ApplyQuestionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var questions []*models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// GetRandomBySection retrieves up to count random active questions from a section.
// Never cached: each call must produce a fresh sample.
func (q *QuestionPostgreSQL) GetRandomBySection(ctx context.Context, tx *gorm.DB, section models.AssessmentSection, count int) ([]*models.Question, error) {
	db := q.getDB(tx)

	var questions []*models.Question
	if err := db.WithContext(ctx).
		Where("section = ? AND is_active = ?", section, true).
		Order("RANDOM()").
		Limit(count).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get random questions for section %s: %w", section, err)
	}

	return questions, nil
}

// CountBySection reports active question counts per section, cached
func (q *QuestionPostgreSQL) CountBySection(ctx context.Context, tx *gorm.DB) ([]repositories.SectionQuestionCount, error) {
	db := q.getDB(tx)

	var counts []repositories.SectionQuestionCount
	err := q.cacheManager.Question.CacheOrExecute(ctx, "counts:by_section", &counts, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbCounts []repositories.SectionQuestionCount
		if err := db.WithContext(ctx).
			Model(&models.Question{}).
			Select("section, COUNT(*) as count").
			Where("is_active = ?", true).
			Group("section").
			Find(&dbCounts).Error; err != nil {
			return nil, fmt.Errorf("failed to count questions by section: %w", err)
		}
		return dbCounts, nil
	})

	if err != nil {
		return nil, err
	}

	return counts, nil
}

// ===== HELPER METHODS =====

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
