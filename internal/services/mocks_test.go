package services

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockQuestionRepository implements repositories.QuestionRepository with
// overridable function hooks
type mockQuestionRepository struct {
	CreateFn             func(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByIDFn            func(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	UpdateFn             func(ctx context.Context, tx *gorm.DB, question *models.Question) error
	DeactivateFn         func(ctx context.Context, tx *gorm.DB, id uint) error
	CreateBatchFn        func(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetActiveByIDsFn     func(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	ListFn               func(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	GetRandomBySectionFn func(ctx context.Context, tx *gorm.DB, section models.AssessmentSection, count int) ([]*models.Question, error)
	CountBySectionFn     func(ctx context.Context, tx *gorm.DB) ([]repositories.SectionQuestionCount, error)
}

func (m *mockQuestionRepository) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, tx, question)
	}
	return nil
}

func (m *mockQuestionRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, tx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockQuestionRepository) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, tx, question)
	}
	return nil
}

func (m *mockQuestionRepository) Deactivate(ctx context.Context, tx *gorm.DB, id uint) error {
	if m.DeactivateFn != nil {
		return m.DeactivateFn(ctx, tx, id)
	}
	return nil
}

func (m *mockQuestionRepository) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, tx, questions)
	}
	return nil
}

func (m *mockQuestionRepository) GetActiveByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if m.GetActiveByIDsFn != nil {
		return m.GetActiveByIDsFn(ctx, tx, ids)
	}
	return nil, nil
}

func (m *mockQuestionRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, tx, filters)
	}
	return nil, 0, nil
}

func (m *mockQuestionRepository) GetRandomBySection(ctx context.Context, tx *gorm.DB, section models.AssessmentSection, count int) ([]*models.Question, error) {
	if m.GetRandomBySectionFn != nil {
		return m.GetRandomBySectionFn(ctx, tx, section, count)
	}
	return nil, nil
}

func (m *mockQuestionRepository) CountBySection(ctx context.Context, tx *gorm.DB) ([]repositories.SectionQuestionCount, error) {
	if m.CountBySectionFn != nil {
		return m.CountBySectionFn(ctx, tx)
	}
	return nil, nil
}

// mockSubmissionRepository implements repositories.SubmissionRepository
type mockSubmissionRepository struct {
	CreateFn                 func(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error
	UpdateReviewFn           func(ctx context.Context, tx *gorm.DB, id uint, update repositories.ReviewUpdate, reviewedAt time.Time) error
	GetByIDFn                func(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentSubmission, error)
	GetLatestByUserAndTypeFn func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error)
	GetBestByUserAndTypeFn   func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error)
	ListByUserFn             func(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, int64, error)
	CountByUserAndTypeFn     func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (int64, error)
	GetStatsByUserFn         func(ctx context.Context, tx *gorm.DB, userID string) ([]repositories.TypeStats, error)
	ListForExportFn          func(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, error)
}

func (m *mockSubmissionRepository) Create(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, tx, submission)
	}
	submission.ID = 1
	return nil
}

func (m *mockSubmissionRepository) UpdateReview(ctx context.Context, tx *gorm.DB, id uint, update repositories.ReviewUpdate, reviewedAt time.Time) error {
	if m.UpdateReviewFn != nil {
		return m.UpdateReviewFn(ctx, tx, id, update, reviewedAt)
	}
	return nil
}

func (m *mockSubmissionRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentSubmission, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, tx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSubmissionRepository) GetLatestByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
	if m.GetLatestByUserAndTypeFn != nil {
		return m.GetLatestByUserAndTypeFn(ctx, tx, userID, assessmentType)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSubmissionRepository) GetBestByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
	if m.GetBestByUserAndTypeFn != nil {
		return m.GetBestByUserAndTypeFn(ctx, tx, userID, assessmentType)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSubmissionRepository) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, int64, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, tx, userID, filters)
	}
	return nil, 0, nil
}

func (m *mockSubmissionRepository) CountByUserAndType(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (int64, error) {
	if m.CountByUserAndTypeFn != nil {
		return m.CountByUserAndTypeFn(ctx, tx, userID, assessmentType)
	}
	return 0, nil
}

func (m *mockSubmissionRepository) GetStatsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]repositories.TypeStats, error) {
	if m.GetStatsByUserFn != nil {
		return m.GetStatsByUserFn(ctx, tx, userID)
	}
	return nil, nil
}

func (m *mockSubmissionRepository) ListForExport(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, error) {
	if m.ListForExportFn != nil {
		return m.ListForExportFn(ctx, tx, filters)
	}
	return nil, nil
}

// mockUserRepository implements repositories.UserRepository
type mockUserRepository struct {
	GetByIDFn            func(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmailFn         func(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	ListFn               func(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error)
	ExistsByIDFn         func(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	UpdateRoleStatusesFn func(ctx context.Context, tx *gorm.DB, id string, statuses models.RoleStatusPair, expectedVersion int) error
}

func (m *mockUserRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, tx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, tx, email)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, tx, filters)
	}
	return nil, 0, nil
}

func (m *mockUserRepository) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	if m.ExistsByIDFn != nil {
		return m.ExistsByIDFn(ctx, tx, id)
	}
	return false, nil
}

func (m *mockUserRepository) UpdateRoleStatuses(ctx context.Context, tx *gorm.DB, id string, statuses models.RoleStatusPair, expectedVersion int) error {
	if m.UpdateRoleStatusesFn != nil {
		return m.UpdateRoleStatusesFn(ctx, tx, id, statuses, expectedVersion)
	}
	return nil
}

// mockRepository aggregates the sub-repository mocks
type mockRepository struct {
	question   *mockQuestionRepository
	submission *mockSubmissionRepository
	user       *mockUserRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		question:   &mockQuestionRepository{},
		submission: &mockSubmissionRepository{},
		user:       &mockUserRepository{},
	}
}

func (m *mockRepository) Question() repositories.QuestionRepository     { return m.question }
func (m *mockRepository) Submission() repositories.SubmissionRepository { return m.submission }
func (m *mockRepository) User() repositories.UserRepository             { return m.user }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }
