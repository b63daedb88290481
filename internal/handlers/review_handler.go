package handlers

import (
	"log/slog"
	"net/http"

	"github.com/annolab/assessment-service/internal/services"
	"github.com/annolab/assessment-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	BaseHandler
	reviewService services.ReviewService
	validator     *validator.Validator
}

func NewReviewHandler(
	reviewService services.ReviewService,
	validator *validator.Validator,
	logger *slog.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   NewBaseHandler(logger),
		reviewService: reviewService,
		validator:     validator,
	}
}

// ReviewSubmission records reviewer notes on a submission
// @Summary Review submission
// @Description Attaches reviewer notes to a submission without changing its scored outcome. Admin only.
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param review body services.ReviewRequest true "Review data"
// @Success 200 {object} models.AssessmentSubmission
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/submissions/{id}/review [put]
func (h *ReviewHandler) ReviewSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Reviewing submission", "submission_id", id)

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	reviewerID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	submission, err := h.reviewService.ReviewSubmission(c.Request.Context(), id, &req, reviewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// FlagSubmission toggles the manual review flag on a submission
// @Summary Flag submission
// @Description Flags or unflags a submission for manual review. Admin only.
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param flag body services.FlagRequest true "Flag data"
// @Success 200 {object} models.AssessmentSubmission
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/submissions/{id}/flag [put]
func (h *ReviewHandler) FlagSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Flagging submission", "submission_id", id)

	var req services.FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	reviewerID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	submission, err := h.reviewService.FlagSubmission(c.Request.Context(), id, &req, reviewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}
