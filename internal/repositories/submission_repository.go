package repositories

import (
	"context"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"gorm.io/gorm"
)

// ReviewUpdate carries the mutable review-overlay fields of a submission.
// All other submission fields are write-once.
type ReviewUpdate struct {
	ReviewedBy  string  `json:"reviewed_by"`
	ReviewNotes *string `json:"review_notes"`
	Flagged     *bool   `json:"flagged"`
	FlagReason  *string `json:"flag_reason"`
}

// SubmissionRepository interface for assessment submission records
type SubmissionRepository interface {
	// Write operations
	Create(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error
	UpdateReview(ctx context.Context, tx *gorm.DB, id uint, update ReviewUpdate, reviewedAt time.Time) error

	// Read operations
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentSubmission, error)
	GetLatestByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error)
	GetBestByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters SubmissionFilters) ([]*models.AssessmentSubmission, int64, error)
	CountByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (int64, error)

	// Statistics
	GetStatsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]TypeStats, error)

	// Export
	ListForExport(ctx context.Context, tx *gorm.DB, filters SubmissionFilters) ([]*models.AssessmentSubmission, error)
}
