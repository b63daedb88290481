package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
	"gorm.io/gorm"
)

type scoringService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewScoringService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ScoringService {
	return &scoringService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// Score grades a complete answer set in one pass. Any answer referencing
// a missing or inactive question, or mismatching its section, fails the
// whole set; partial results are never produced.
func (s *scoringService) Score(ctx context.Context, tx *gorm.DB, answers []AnswerSubmission, passingScore int) (*ScoringResult, error) {
	if len(answers) == 0 {
		return nil, NewValidationError("answers", "cannot be empty", nil)
	}

	// Reject duplicate question references up front
	ids := make([]uint, 0, len(answers))
	seen := make(map[uint]bool, len(answers))
	for _, answer := range answers {
		if seen[answer.QuestionID] {
			return nil, NewValidationError("answers", fmt.Sprintf("question %d answered more than once", answer.QuestionID), answer.QuestionID)
		}
		seen[answer.QuestionID] = true
		ids = append(ids, answer.QuestionID)
	}

	questions, err := s.repo.Question().GetActiveByIDs(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for scoring: %w", err)
	}

	questionsByID := make(map[uint]*models.Question, len(questions))
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	// Point sum over correct answers; the denominator stays an answer count
	correctAnswers := 0
	totalQuestions := len(answers)
	sectionPerformance := make(map[models.AssessmentSection]models.SectionPerformance)
	snapshots := make([]models.QuestionSnapshot, 0, len(answers))

	for _, answer := range answers {
		question, ok := questionsByID[answer.QuestionID]
		if !ok {
			return nil, NewValidationError("answers", fmt.Sprintf("question %d not found or inactive", answer.QuestionID), answer.QuestionID)
		}
		if question.Section != answer.Section {
			return nil, NewValidationError("answers",
				fmt.Sprintf("question %d belongs to section %s, got %s", answer.QuestionID, question.Section, answer.Section),
				answer.Section)
		}

		isCorrect := compareAnswers(answer.Answer, question.CorrectAnswer)
		pointsAwarded := 0
		if isCorrect {
			pointsAwarded = question.Points
			correctAnswers += question.Points
		}

		perf := sectionPerformance[question.Section]
		perf.Total++
		if isCorrect {
			perf.Correct++
		}
		sectionPerformance[question.Section] = perf

		snapshot, err := s.buildSnapshot(question, answer, isCorrect, pointsAwarded)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot question %d: %w", question.ID, err)
		}
		snapshots = append(snapshots, snapshot)
	}

	for section, perf := range sectionPerformance {
		if perf.Total > 0 {
			perf.Percentage = int(math.Round(float64(perf.Correct) / float64(perf.Total) * 100))
		}
		sectionPerformance[section] = perf
	}

	scorePercentage := int(math.Round(float64(correctAnswers) / float64(totalQuestions) * 100))
	passed := scorePercentage >= passingScore

	result := &ScoringResult{
		TotalQuestions:     totalQuestions,
		CorrectAnswers:     correctAnswers,
		ScorePercentage:    scorePercentage,
		Passed:             passed,
		Grade:              s.CalculateLetterGrade(scorePercentage),
		SectionPerformance: sectionPerformance,
		Snapshots:          snapshots,
	}

	s.logger.Debug("Answer set scored",
		"total_questions", totalQuestions,
		"correct_answers", correctAnswers,
		"score_percentage", scorePercentage,
		"passed", passed)

	return result, nil
}

// CalculateLetterGrade maps a percentage score to a letter grade
func (s *scoringService) CalculateLetterGrade(percentage int) string {
	if percentage >= 90 {
		return "A"
	} else if percentage >= 80 {
		return "B"
	} else if percentage >= 70 {
		return "C"
	} else if percentage >= 60 {
		return "D"
	}
	return "F"
}
