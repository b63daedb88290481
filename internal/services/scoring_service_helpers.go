package services

import (
	"strings"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/google/uuid"
)

// ===== SCORING UTILITIES =====

// compareAnswers checks answer equality ignoring case and surrounding whitespace
func compareAnswers(submitted, correct string) bool {
	return normalizeAnswer(submitted) == normalizeAnswer(correct)
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// buildSnapshot freezes the question as presented together with the
// grading outcome. Option snapshots get fresh identifiers; they are
// presentation metadata and play no part in scoring.
func (s *scoringService) buildSnapshot(question *models.Question, answer AnswerSubmission, isCorrect bool, pointsAwarded int) (models.QuestionSnapshot, error) {
	options := answer.Options
	if len(options) == 0 {
		questionOptions, err := question.OptionList()
		if err != nil {
			return models.QuestionSnapshot{}, err
		}
		options = questionOptions
	}

	optionSnapshots := make([]models.OptionSnapshot, len(options))
	for i, option := range options {
		optionSnapshots[i] = models.OptionSnapshot{
			ID:        uuid.NewString(),
			Text:      option,
			IsCorrect: compareAnswers(option, question.CorrectAnswer),
		}
	}

	return models.QuestionSnapshot{
		QuestionID:    question.ID,
		Section:       question.Section,
		Text:          question.Text,
		Options:       optionSnapshots,
		UserAnswer:    answer.Answer,
		CorrectAnswer: question.CorrectAnswer,
		IsCorrect:     isCorrect,
		PointsAwarded: pointsAwarded,
		MaxPoints:     question.Points,
	}, nil
}
