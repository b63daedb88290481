package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/annolab/assessment-service/internal/events"
	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
	"gorm.io/gorm"
)

type submissionTestEnv struct {
	repo      *mockRepository
	publisher *events.MockEventPublisher
	service   SubmissionService
}

func newSubmissionTestEnv() *submissionTestEnv {
	repo := newMockRepository()
	logger := testLogger()
	v := validator.New()
	publisher := events.NewMockEventPublisher(logger)

	scoring := NewScoringService(nil, repo, logger, v)
	notification := NewNotificationEventService(repo, publisher, logger, v)
	email := NewEmailService(publisher, logger)
	policy := NewRetakePolicy(24 * time.Hour)

	return &submissionTestEnv{
		repo:      repo,
		publisher: publisher,
		service:   NewSubmissionService(nil, repo, logger, v, scoring, policy, notification, email),
	}
}

func stubUser(repo *mockRepository, user *models.User) {
	repo.user.GetByIDFn = func(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
		if id == user.ID {
			copied := *user
			return &copied, nil
		}
		return nil, repositories.ErrNotFound
	}
}

func pendingUser() *models.User {
	return &models.User{
		ID:                "user-1",
		FullName:          "Ada Quinn",
		Email:             "ada@example.com",
		AnnotatorStatus:   models.RoleStatusPending,
		MicroTaskerStatus: models.RoleStatusPending,
		StatusVersion:     3,
	}
}

func qualificationRequest(answers ...AnswerSubmission) *SubmitAssessmentRequest {
	now := time.Now()
	return &SubmitAssessmentRequest{
		AssessmentType: models.TypeAnnotatorQualification,
		StartedAt:      now.Add(-30 * time.Minute),
		CompletedAt:    now,
		Answers:        answers,
	}
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("passing qualification approves annotator", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		stubActiveQuestions(env.repo,
			makeQuestion(1, models.SectionVocabulary, "a", 1),
			makeQuestion(2, models.SectionGrammar, "b", 1),
		)

		var createdSubmission *models.AssessmentSubmission
		env.repo.submission.CreateFn = func(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
			submission.ID = 42
			createdSubmission = submission
			return nil
		}

		var statusWrite *models.RoleStatusPair
		var writeVersion int
		env.repo.user.UpdateRoleStatusesFn = func(ctx context.Context, tx *gorm.DB, id string, statuses models.RoleStatusPair, expectedVersion int) error {
			statusWrite = &statuses
			writeVersion = expectedVersion
			return nil
		}

		result, err := env.service.Submit(ctx, "user-1", qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"},
			AnswerSubmission{QuestionID: 2, Section: models.SectionGrammar, Answer: "b"},
		), RequestMeta{ClientIP: "10.0.0.1", UserAgent: "test-agent"})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		if result.SubmissionID != 42 {
			t.Errorf("SubmissionID = %d, want 42", result.SubmissionID)
		}
		if !result.Passed || result.ScorePercentage != 100 {
			t.Errorf("result = %d%% passed=%v, want 100%% passed", result.ScorePercentage, result.Passed)
		}
		if result.AttemptNumber != 1 || result.IsRetake {
			t.Errorf("attempt = %d retake=%v, want first attempt", result.AttemptNumber, result.IsRetake)
		}
		if result.StatusAfter.AnnotatorStatus != models.RoleStatusApproved {
			t.Errorf("annotator status after = %s, want approved", result.StatusAfter.AnnotatorStatus)
		}

		if statusWrite == nil {
			t.Fatal("expected a role status write")
		}
		if statusWrite.AnnotatorStatus != models.RoleStatusApproved || statusWrite.MicroTaskerStatus != models.RoleStatusApproved {
			t.Errorf("status write = %+v, want both approved", statusWrite)
		}
		if writeVersion != 3 {
			t.Errorf("expectedVersion = %d, want 3", writeVersion)
		}

		if createdSubmission == nil {
			t.Fatal("expected submission create")
		}
		if createdSubmission.ClientIP == nil || *createdSubmission.ClientIP != "10.0.0.1" {
			t.Error("client ip not recorded")
		}
		snapshots, err := createdSubmission.QuestionSnapshots()
		if err != nil || len(snapshots) != 2 {
			t.Errorf("snapshots = %d (%v), want 2", len(snapshots), err)
		}

		// Post-commit fan-out: submission event, status change event,
		// notification, email
		published := env.publisher.GetPublishedEvents()
		if len(published) != 4 {
			t.Fatalf("published events = %d, want 4", len(published))
		}
		types := make(map[string]int)
		for _, e := range published {
			types[e.Type]++
		}
		for _, want := range []string{
			events.EventAssessmentSubmitted,
			events.EventUserStatusChanged,
			events.EventNotificationCreated,
			events.EventEmailRequested,
		} {
			if types[want] != 1 {
				t.Errorf("event %s published %d times, want 1", want, types[want])
			}
		}
	})

	t.Run("failing qualification rejects annotator and approves micro tasker", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		stubActiveQuestions(env.repo, makeQuestion(1, models.SectionVocabulary, "a", 1))

		var statusWrite *models.RoleStatusPair
		env.repo.user.UpdateRoleStatusesFn = func(ctx context.Context, tx *gorm.DB, id string, statuses models.RoleStatusPair, expectedVersion int) error {
			statusWrite = &statuses
			return nil
		}

		result, err := env.service.Submit(ctx, "user-1", qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "wrong"},
		), RequestMeta{})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		if result.Passed {
			t.Error("Passed = true, want false")
		}
		if statusWrite == nil {
			t.Fatal("expected a role status write")
		}
		if statusWrite.AnnotatorStatus != models.RoleStatusRejected {
			t.Errorf("annotator status = %s, want rejected", statusWrite.AnnotatorStatus)
		}
		if statusWrite.MicroTaskerStatus != models.RoleStatusApproved {
			t.Errorf("micro tasker status = %s, want approved", statusWrite.MicroTaskerStatus)
		}
	})

	t.Run("skill assessment skips status write", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		stubActiveQuestions(env.repo, makeQuestion(1, models.SectionVocabulary, "a", 1))

		statusWrites := 0
		env.repo.user.UpdateRoleStatusesFn = func(ctx context.Context, tx *gorm.DB, id string, statuses models.RoleStatusPair, expectedVersion int) error {
			statusWrites++
			return nil
		}

		req := qualificationRequest(AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"})
		req.AssessmentType = models.TypeSkillAssessment

		result, err := env.service.Submit(ctx, "user-1", req, RequestMeta{})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if statusWrites != 0 {
			t.Errorf("status writes = %d, want 0", statusWrites)
		}
		if !result.StatusBefore.Equal(result.StatusAfter) {
			t.Error("statuses should be unchanged for skill assessments")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newSubmissionTestEnv()

		_, err := env.service.Submit(ctx, "ghost", qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"},
		), RequestMeta{})
		if !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("err = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("retake inside cooldown", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		env.repo.submission.GetLatestByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
			return &models.AssessmentSubmission{CreatedAt: time.Now().Add(-2 * time.Hour)}, nil
		}

		_, err := env.service.Submit(ctx, "user-1", qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"},
		), RequestMeta{})
		if !errors.Is(err, ErrRetakeCooldownActive) {
			t.Fatalf("err = %v, want ErrRetakeCooldownActive", err)
		}
	})

	t.Run("retake after cooldown increments attempt", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		stubActiveQuestions(env.repo, makeQuestion(1, models.SectionVocabulary, "a", 1))

		prior := &models.AssessmentSubmission{
			ID:              7,
			CreatedAt:       time.Now().Add(-48 * time.Hour),
			CompletedAt:     time.Now().Add(-48 * time.Hour),
			ScorePercentage: 40,
			Passed:          false,
		}
		env.repo.submission.GetLatestByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
			return prior, nil
		}
		env.repo.submission.CountByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (int64, error) {
			return 1, nil
		}
		env.repo.submission.ListByUserFn = func(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, int64, error) {
			return []*models.AssessmentSubmission{prior}, 1, nil
		}

		var created *models.AssessmentSubmission
		env.repo.submission.CreateFn = func(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
			submission.ID = 8
			created = submission
			return nil
		}

		result, err := env.service.Submit(ctx, "user-1", qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"},
		), RequestMeta{})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		if result.AttemptNumber != 2 || !result.IsRetake {
			t.Errorf("attempt = %d retake=%v, want second attempt retake", result.AttemptNumber, result.IsRetake)
		}

		summaries, err := created.PreviousAttemptSummaries()
		if err != nil {
			t.Fatalf("failed to decode previous attempts: %v", err)
		}
		if len(summaries) != 1 || summaries[0].Score != 40 {
			t.Errorf("previous attempts = %+v, want one with score 40", summaries)
		}
	})

	t.Run("status conflict surfaces typed error", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		stubActiveQuestions(env.repo, makeQuestion(1, models.SectionVocabulary, "a", 1))
		env.repo.user.UpdateRoleStatusesFn = func(ctx context.Context, tx *gorm.DB, id string, statuses models.RoleStatusPair, expectedVersion int) error {
			return repositories.ErrStatusConflict
		}

		_, err := env.service.Submit(ctx, "user-1", qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"},
		), RequestMeta{})
		if !errors.Is(err, ErrStatusConflict) {
			t.Fatalf("err = %v, want ErrStatusConflict", err)
		}
	})

	t.Run("client passing score raises the bar", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		stubActiveQuestions(env.repo,
			makeQuestion(1, models.SectionVocabulary, "a", 1),
			makeQuestion(2, models.SectionGrammar, "b", 1),
			makeQuestion(3, models.SectionWriting, "c", 1),
			makeQuestion(4, models.SectionComprehension, "d", 1),
			makeQuestion(5, models.SectionVocabulary, "e", 1),
		)

		var created *models.AssessmentSubmission
		env.repo.submission.CreateFn = func(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
			submission.ID = 9
			created = submission
			return nil
		}

		req := qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"},
			AnswerSubmission{QuestionID: 2, Section: models.SectionGrammar, Answer: "b"},
			AnswerSubmission{QuestionID: 3, Section: models.SectionWriting, Answer: "c"},
			AnswerSubmission{QuestionID: 4, Section: models.SectionComprehension, Answer: "wrong"},
			AnswerSubmission{QuestionID: 5, Section: models.SectionVocabulary, Answer: "wrong"},
		)
		req.PassingScore = 80

		result, err := env.service.Submit(ctx, "user-1", req, RequestMeta{})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		if result.ScorePercentage != 60 {
			t.Errorf("ScorePercentage = %d, want 60", result.ScorePercentage)
		}
		if result.Passed {
			t.Error("Passed = true, want false against a threshold of 80")
		}
		if result.StatusAfter.AnnotatorStatus != models.RoleStatusRejected {
			t.Errorf("annotator status = %s, want rejected", result.StatusAfter.AnnotatorStatus)
		}
		if created == nil || created.PassingScore != 80 {
			t.Errorf("stored passing score = %+v, want 80", created)
		}
	})

	t.Run("payload timing drives the recorded elapsed time", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		stubActiveQuestions(env.repo, makeQuestion(1, models.SectionVocabulary, "a", 1))

		var created *models.AssessmentSubmission
		env.repo.submission.CreateFn = func(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
			submission.ID = 10
			created = submission
			return nil
		}

		started := time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)
		completed := started.Add(75 * time.Minute)
		req := qualificationRequest(AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"})
		req.StartedAt = started
		req.CompletedAt = completed

		result, err := env.service.Submit(ctx, "user-1", req, RequestMeta{})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		if result.TimeSpentMinutes != 75 {
			t.Errorf("TimeSpentMinutes = %d, want 75", result.TimeSpentMinutes)
		}
		if result.TimeSpentFormatted != "1h 15m" {
			t.Errorf("TimeSpentFormatted = %q, want %q", result.TimeSpentFormatted, "1h 15m")
		}
		if !result.CompletedAt.Equal(completed) {
			t.Errorf("result CompletedAt = %v, want %v", result.CompletedAt, completed)
		}
		if created == nil || !created.CompletedAt.Equal(completed) {
			t.Errorf("stored CompletedAt = %+v, want %v", created, completed)
		}
	})

	t.Run("completion before start is rejected", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())

		req := qualificationRequest(AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"})
		req.CompletedAt = req.StartedAt.Add(-1 * time.Minute)

		_, err := env.service.Submit(ctx, "user-1", req, RequestMeta{})
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("err = %v, want ValidationErrors", err)
		}
	})

	t.Run("backdated completion does not bypass cooldown", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		env.repo.submission.GetLatestByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
			return &models.AssessmentSubmission{
				CreatedAt:   time.Now().Add(-2 * time.Hour),
				CompletedAt: time.Now().Add(-48 * time.Hour),
			}, nil
		}

		_, err := env.service.Submit(ctx, "user-1", qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"},
		), RequestMeta{})
		if !errors.Is(err, ErrRetakeCooldownActive) {
			t.Fatalf("err = %v, want ErrRetakeCooldownActive", err)
		}
	})

	t.Run("publish failure does not fail the submission", func(t *testing.T) {
		env := newSubmissionTestEnv()
		stubUser(env.repo, pendingUser())
		stubActiveQuestions(env.repo, makeQuestion(1, models.SectionVocabulary, "a", 1))
		env.publisher.FailWith(errors.New("broker down"))

		_, err := env.service.Submit(ctx, "user-1", qualificationRequest(
			AnswerSubmission{QuestionID: 1, Section: models.SectionVocabulary, Answer: "a"},
		), RequestMeta{})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	})
}

func TestSubmissionService_GetSubmission(t *testing.T) {
	ctx := context.Background()

	stored := &models.AssessmentSubmission{ID: 5, UserID: "owner"}

	newEnv := func() *submissionTestEnv {
		env := newSubmissionTestEnv()
		env.repo.submission.GetByIDFn = func(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentSubmission, error) {
			if id == stored.ID {
				return stored, nil
			}
			return nil, repositories.ErrNotFound
		}
		return env
	}

	t.Run("owner can read", func(t *testing.T) {
		env := newEnv()
		got, err := env.service.GetSubmission(ctx, 5, "owner", models.RoleAnnotator)
		if err != nil {
			t.Fatalf("GetSubmission failed: %v", err)
		}
		if got.ID != 5 {
			t.Errorf("ID = %d, want 5", got.ID)
		}
	})

	t.Run("admin can read", func(t *testing.T) {
		env := newEnv()
		if _, err := env.service.GetSubmission(ctx, 5, "someone-else", models.RoleAdmin); err != nil {
			t.Fatalf("GetSubmission failed: %v", err)
		}
	})

	t.Run("stranger is denied", func(t *testing.T) {
		env := newEnv()
		_, err := env.service.GetSubmission(ctx, 5, "stranger", models.RoleAnnotator)
		var permissionError *PermissionError
		if !errors.As(err, &permissionError) {
			t.Fatalf("err = %v, want PermissionError", err)
		}
	})

	t.Run("missing submission", func(t *testing.T) {
		env := newEnv()
		_, err := env.service.GetSubmission(ctx, 99, "owner", models.RoleAnnotator)
		if !errors.Is(err, ErrSubmissionNotFound) {
			t.Fatalf("err = %v, want ErrSubmissionNotFound", err)
		}
	})
}
