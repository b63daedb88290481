package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type exportService struct {
	repo    repositories.Repository
	logger  *slog.Logger
	scoring ScoringService
}

func NewExportService(repo repositories.Repository, logger *slog.Logger, scoring ScoringService) ExportService {
	return &exportService{
		repo:    repo,
		logger:  logger,
		scoring: scoring,
	}
}

// ExportSubmissions builds an xlsx workbook with one row per submission
// for offline review and auditing.
func (s *exportService) ExportSubmissions(ctx context.Context, filters repositories.SubmissionFilters) ([]byte, error) {
	submissions, err := s.repo.Submission().ListForExport(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Submissions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"ID", "User ID", "Assessment Type", "Score %", "Grade", "Passed",
		"Correct Points", "Answered", "Attempt", "Retake",
		"Time Spent (min)", "Completed At", "Flagged", "Reviewed By",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheet, "A1", lastCol, headerStyle)
	}

	for i, sub := range submissions {
		row := i + 2
		reviewedBy := ""
		if sub.ReviewedBy != nil {
			reviewedBy = *sub.ReviewedBy
		}

		values := []interface{}{
			sub.ID,
			sub.UserID,
			string(sub.AssessmentType),
			sub.ScorePercentage,
			s.scoring.CalculateLetterGrade(sub.ScorePercentage),
			sub.Passed,
			sub.CorrectAnswers,
			sub.TotalQuestions,
			sub.AttemptNumber,
			sub.IsRetake,
			sub.TimeSpentMinutes,
			sub.CompletedAt.Format("2006-01-02 15:04:05"),
			sub.FlaggedForReview,
			reviewedBy,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to build data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set data cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Exported submissions", "count", len(submissions))
	return buf.Bytes(), nil
}
