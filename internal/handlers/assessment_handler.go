package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/services"
	"github.com/annolab/assessment-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type AssessmentHandler struct {
	BaseHandler
	questionService   services.QuestionService
	submissionService services.SubmissionService
	historyService    services.HistoryService
	validator         *validator.Validator
}

func NewAssessmentHandler(
	questionService services.QuestionService,
	submissionService services.SubmissionService,
	historyService services.HistoryService,
	validator *validator.Validator,
	logger *slog.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		questionService:   questionService,
		submissionService: submissionService,
		historyService:    historyService,
		validator:         validator,
	}
}

// GetQuestions returns a randomized question set for an assessment
// @Summary Get assessment questions
// @Description Returns a freshly sampled, shuffled question set with answers stripped
// @Tags assessments
// @Produce json
// @Param type query string true "Assessment type"
// @Param per_section query int false "Questions per section"
// @Success 200 {object} services.AssessmentQuestionsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /assessments/questions [get]
func (h *AssessmentHandler) GetQuestions(c *gin.Context) {
	h.LogRequest(c, "Getting assessment questions")

	req := &services.AssessmentQuestionsRequest{
		AssessmentType: models.AssessmentType(c.Query("type")),
		PerSection:     h.parseIntQuery(c, "per_section", 0),
	}

	response, err := h.questionService.GetAssessmentQuestions(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Submit scores an answered assessment
// @Summary Submit assessment
// @Description Scores the submitted answers, records the attempt, and applies role status transitions
// @Tags assessments
// @Accept json
// @Produce json
// @Param submission body services.SubmitAssessmentRequest true "Submission data"
// @Success 201 {object} services.SubmissionResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /assessments/submit [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	h.LogRequest(c, "Submitting assessment")

	var req services.SubmitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	meta := services.RequestMeta{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	result, err := h.submissionService.Submit(c.Request.Context(), userID, &req, meta)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetSubmission retrieves a single submission
// @Summary Get submission
// @Description Retrieves a submission with full question snapshots. Owners and admins only.
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.AssessmentSubmission
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *AssessmentHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting submission", "submission_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	role := models.RoleAnnotator
	if r, exists := c.Get("user_role"); exists {
		role = r.(models.UserRole)
	}

	submission, err := h.submissionService.GetSubmission(c.Request.Context(), id, userID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetHistory returns the caller's submission history
// @Summary Get submission history
// @Description Returns the caller's paginated submission history
// @Tags submissions
// @Produce json
// @Param type query string false "Assessment type filter"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.HistoryResponse
// @Failure 401 {object} ErrorResponse
// @Router /submissions/history [get]
func (h *AssessmentHandler) GetHistory(c *gin.Context) {
	h.LogRequest(c, "Getting submission history")

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := h.parseHistoryFilters(c)

	response, err := h.historyService.GetHistory(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetEligibility answers whether the caller can take an assessment now
// @Summary Get assessment eligibility
// @Description Reports retake eligibility without mutating any attempt state
// @Tags assessments
// @Produce json
// @Param type path string true "Assessment type"
// @Success 200 {object} services.EligibilityResponse
// @Failure 400 {object} ErrorResponse
// @Router /assessments/{type}/eligibility [get]
func (h *AssessmentHandler) GetEligibility(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	assessmentType := models.AssessmentType(c.Param("type"))

	h.LogRequest(c, "Checking assessment eligibility", "assessment_type", assessmentType)

	response, err := h.historyService.GetEligibility(c.Request.Context(), userID, assessmentType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetStats returns per-type aggregates for the caller
// @Summary Get submission stats
// @Description Returns attempt counts and best scores per assessment type
// @Tags submissions
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /submissions/stats [get]
func (h *AssessmentHandler) GetStats(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.historyService.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: stats})
}

func (h *AssessmentHandler) parseHistoryFilters(c *gin.Context) repositories.SubmissionFilters {
	page := h.parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := h.parseIntQuery(c, "size", 20)
	if size < 1 || size > 100 {
		size = 20
	}

	filters := repositories.SubmissionFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "completed_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if t := c.Query("type"); t != "" {
		assessmentType := models.AssessmentType(t)
		filters.AssessmentType = &assessmentType
	}

	if passed := c.Query("passed"); passed != "" {
		passedBool := passed == "true"
		filters.Passed = &passedBool
	}

	if from := c.Query("date_from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &parsed
		}
	}
	if to := c.Query("date_to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &parsed
		}
	}

	return filters
}
