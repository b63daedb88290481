package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
	"gorm.io/gorm"
)

type reviewService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewReviewService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ReviewService {
	return &reviewService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ReviewSubmission attaches reviewer notes to a submission. The scored
// outcome is immutable; review is an overlay on top of it.
func (s *reviewService) ReviewSubmission(ctx context.Context, id uint, req *ReviewRequest, reviewerID string) (*models.AssessmentSubmission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	update := repositories.ReviewUpdate{
		ReviewedBy:  reviewerID,
		ReviewNotes: &req.Notes,
	}

	if err := s.repo.Submission().UpdateReview(ctx, nil, id, update, time.Now()); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.logger.Info("Submission reviewed",
		"submission_id", id,
		"reviewer_id", reviewerID)

	return s.repo.Submission().GetByID(ctx, nil, id)
}

// FlagSubmission toggles the manual review flag without touching the
// recorded score or status transition.
func (s *reviewService) FlagSubmission(ctx context.Context, id uint, req *FlagRequest, reviewerID string) (*models.AssessmentSubmission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	flagged := req.Flagged
	update := repositories.ReviewUpdate{
		ReviewedBy: reviewerID,
		Flagged:    &flagged,
	}
	if req.Reason != nil {
		update.FlagReason = req.Reason
	}

	if err := s.repo.Submission().UpdateReview(ctx, nil, id, update, time.Now()); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to update flag: %w", err)
	}

	s.logger.Info("Submission flag updated",
		"submission_id", id,
		"flagged", req.Flagged,
		"reviewer_id", reviewerID)

	return s.repo.Submission().GetByID(ctx, nil, id)
}
