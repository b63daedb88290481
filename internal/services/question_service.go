package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
	"gorm.io/gorm"
)

// DefaultQuestionsPerSection is the sample size per section when the
// request does not specify one
const DefaultQuestionsPerSection = 5

type questionService struct {
	repo       repositories.Repository
	db         *gorm.DB
	logger     *slog.Logger
	validator  *validator.Validator
	perSection int
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, perSection int) QuestionService {
	if perSection <= 0 {
		perSection = DefaultQuestionsPerSection
	}
	return &questionService{
		repo:       repo,
		db:         db,
		logger:     logger,
		validator:  validator,
		perSection: perSection,
	}
}

// ===== CANDIDATE-FACING SAMPLING =====

// GetAssessmentQuestions samples random active questions from every
// section, strips the correct answers, shuffles each question's options
// and shuffles the combined list. Every call produces a fresh paper.
func (s *questionService) GetAssessmentQuestions(ctx context.Context, req *AssessmentQuestionsRequest) (*AssessmentQuestionsResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	perSection := req.PerSection
	if perSection <= 0 {
		perSection = s.perSection
	}

	var sampled []models.SampledQuestion
	for _, section := range models.AllSections() {
		questions, err := s.repo.Question().GetRandomBySection(ctx, nil, section, perSection)
		if err != nil {
			return nil, fmt.Errorf("failed to sample section %s: %w", section, err)
		}

		for _, question := range questions {
			options, err := question.OptionList()
			if err != nil {
				return nil, fmt.Errorf("failed to decode options for question %d: %w", question.ID, err)
			}

			// Shuffle the option order per question
			rand.Shuffle(len(options), func(i, j int) {
				options[i], options[j] = options[j], options[i]
			})

			sampled = append(sampled, models.SampledQuestion{
				ID:      question.ID,
				Section: question.Section,
				Text:    question.Text,
				Options: options,
				Points:  question.Points,
			})
		}
	}

	if len(sampled) == 0 {
		return nil, ErrInsufficientQuestions
	}

	// Shuffle the combined list so sections are interleaved
	rand.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})

	s.logger.Info("Assessment questions sampled",
		"assessment_type", req.AssessmentType,
		"total_questions", len(sampled))

	return &AssessmentQuestionsResponse{
		AssessmentType: req.AssessmentType,
		Questions:      sampled,
		TotalQuestions: len(sampled),
		GeneratedAt:    time.Now(),
	}, nil
}

// ===== ADMIN QUESTION BANK MANAGEMENT =====

// CreateQuestion creates a new question in the bank
func (s *questionService) CreateQuestion(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	s.logger.Info("Creating question",
		"section", req.Section,
		"creator_id", creatorID)

	if errs := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, toServiceValidationErrors(errs)
	}

	question := &models.Question{
		Section:       req.Section,
		Text:          req.Text,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		IsActive:      true,
		CreatedBy:     creatorID,
	}
	if err := question.SetOptions(req.Options); err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created", "question_id", question.ID, "section", question.Section)

	return question, nil
}

// UpdateQuestion updates an existing question
func (s *questionService) UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest, updaterID string) (*models.Question, error) {
	s.logger.Info("Updating question", "question_id", id, "updater_id", updaterID)

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateQuestionUpdate(req, question); len(errs) > 0 {
		return nil, toServiceValidationErrors(errs)
	}

	if req.Section != nil {
		question.Section = *req.Section
	}
	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Options != nil {
		if err := question.SetOptions(req.Options); err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.IsActive != nil {
		question.IsActive = *req.IsActive
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return question, nil
}

// DeactivateQuestion retires a question from sampling
func (s *questionService) DeactivateQuestion(ctx context.Context, id uint, updaterID string) error {
	s.logger.Info("Deactivating question", "question_id", id, "updater_id", updaterID)

	if err := s.repo.Question().Deactivate(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to deactivate question: %w", err)
	}

	return nil
}

// GetQuestion retrieves a single question including its correct answer
func (s *questionService) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// ListQuestions retrieves questions with filters and pagination
func (s *questionService) ListQuestions(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error) {
	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	page := 1
	size := len(questions)
	if filters.Limit > 0 {
		size = filters.Limit
		page = filters.Offset/filters.Limit + 1
	}

	return &QuestionListResponse{
		Questions: questions,
		Total:     total,
		Page:      page,
		Size:      size,
	}, nil
}

// GetSectionCounts reports active question counts per section
func (s *questionService) GetSectionCounts(ctx context.Context) ([]repositories.SectionQuestionCount, error) {
	counts, err := s.repo.Question().CountBySection(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get section counts: %w", err)
	}
	return counts, nil
}

// toServiceValidationErrors converts business validator errors
func toServiceValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for i, e := range errs {
		out[i] = ValidationError{
			Field:   e.Field,
			Message: e.Message,
			Value:   e.Value,
		}
	}
	return out
}
