package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/annolab/assessment-service/internal/services"
	"github.com/annolab/assessment-service/internal/validator"
)

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	questionHandler   *QuestionHandler
	reviewHandler     *ReviewHandler
	serviceManager    services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(
			serviceManager.Question(),
			serviceManager.Submission(),
			serviceManager.History(),
			validator, logger),
		questionHandler: NewQuestionHandler(
			serviceManager.Question(),
			serviceManager.Export(),
			validator, logger),
		reviewHandler:  NewReviewHandler(serviceManager.Review(), validator, logger),
		serviceManager: serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware())
	{
		// Assessment routes for annotators
		assessments := v1.Group("/assessments")
		{
			assessments.GET("/questions", hm.assessmentHandler.GetQuestions)
			assessments.POST("/submit", hm.assessmentHandler.Submit)
			assessments.GET("/:type/eligibility", hm.assessmentHandler.GetEligibility)
		}

		// Submission routes
		submissions := v1.Group("/submissions")
		{
			submissions.GET("/history", hm.assessmentHandler.GetHistory)
			submissions.GET("/stats", hm.assessmentHandler.GetStats)
			submissions.GET("/:id", hm.assessmentHandler.GetSubmission)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(RequireAdmin())
		{
			questions := admin.Group("/questions")
			{
				questions.POST("", hm.questionHandler.CreateQuestion)
				questions.GET("", hm.questionHandler.ListQuestions)
				questions.GET("/section-counts", hm.questionHandler.GetSectionCounts)
				questions.GET("/:id", hm.questionHandler.GetQuestion)
				questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
				questions.DELETE("/:id", hm.questionHandler.DeactivateQuestion)
			}

			adminSubmissions := admin.Group("/submissions")
			{
				adminSubmissions.GET("/export", hm.questionHandler.ExportSubmissions)
				adminSubmissions.PUT("/:id/review", hm.reviewHandler.ReviewSubmission)
				adminSubmissions.PUT("/:id/flag", hm.reviewHandler.FlagSubmission)
			}
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{
				"status":  "unhealthy",
				"service": "assessment-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "assessment-service",
		})
	})
}
