package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/services"
	"github.com/annolab/assessment-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	exportService   services.ExportService
	validator       *validator.Validator
}

func NewQuestionHandler(
	questionService services.QuestionService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger *slog.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		exportService:   exportService,
		validator:       validator,
	}
}

// CreateQuestion creates a new question bank entry
// @Summary Create question
// @Description Creates a new question in the bank. Admin only.
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
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

	question, err := h.questionService.CreateQuestion(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion updates an existing question
// @Summary Update question
// @Description Updates question fields. Already recorded submissions keep their snapshots. Admin only.
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Question update data"
// @Success 200 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
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

	question, err := h.questionService.UpdateQuestion(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeactivateQuestion removes a question from future sampling
// @Summary Deactivate question
// @Description Marks a question inactive so it is never sampled again. Admin only.
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/questions/{id} [delete]
func (h *QuestionHandler) DeactivateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deactivating question", "question_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.questionService.DeactivateQuestion(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deactivated"})
}

// GetQuestion retrieves a question with its correct answer
// @Summary Get question
// @Description Retrieves a question including the correct answer. Admin only.
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} ErrorResponse
// @Router /admin/questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetQuestion(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ListQuestions lists question bank entries
// @Summary List questions
// @Description Lists questions with filtering and pagination. Admin only.
// @Tags questions
// @Produce json
// @Param section query string false "Section filter"
// @Param is_active query bool false "Active filter"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.QuestionListResponse
// @Router /admin/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	filters := h.parseQuestionFilters(c)

	response, err := h.questionService.ListQuestions(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetSectionCounts returns active question counts per section
// @Summary Get section counts
// @Description Returns the number of active questions per section. Admin only.
// @Tags questions
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /admin/questions/section-counts [get]
func (h *QuestionHandler) GetSectionCounts(c *gin.Context) {
	counts, err := h.questionService.GetSectionCounts(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: counts})
}

// ExportSubmissions downloads submissions as an xlsx workbook
// @Summary Export submissions
// @Description Builds an xlsx workbook of submission records. Admin only.
// @Tags submissions
// @Produce application/octet-stream
// @Param type query string false "Assessment type filter"
// @Success 200 {file} binary
// @Router /admin/submissions/export [get]
func (h *QuestionHandler) ExportSubmissions(c *gin.Context) {
	h.LogRequest(c, "Exporting submissions")

	filters := repositories.SubmissionFilters{}
	if t := c.Query("type"); t != "" {
		assessmentType := models.AssessmentType(t)
		filters.AssessmentType = &assessmentType
	}
	if flagged := c.Query("flagged"); flagged != "" {
		flaggedBool := flagged == "true"
		filters.Flagged = &flaggedBool
	}
	if limit := h.parseIntQuery(c, "limit", 0); limit > 0 {
		filters.Limit = limit
	}

	data, err := h.exportService.ExportSubmissions(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("submissions_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *QuestionHandler) parseQuestionFilters(c *gin.Context) repositories.QuestionFilters {
	page := h.parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := h.parseIntQuery(c, "size", 20)
	if size < 1 || size > 100 {
		size = 20
	}

	filters := repositories.QuestionFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if section := c.Query("section"); section != "" {
		assessmentSection := models.AssessmentSection(section)
		filters.Section = &assessmentSection
	}

	if isActive := c.Query("is_active"); isActive != "" {
		activeBool := isActive == "true"
		filters.IsActive = &activeBool
	}

	if createdBy := c.Query("created_by"); createdBy != "" {
		filters.CreatedBy = &createdBy
	}

	return filters
}
