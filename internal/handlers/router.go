package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-assembly-service/internal/services"
	"github.com/SAP-F-2025/exam-assembly-service/internal/validator"
)

type HandlerManager struct {
	assemblyHandler *AssemblyHandler
	healthHandler   *HealthHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		assemblyHandler: NewAssemblyHandler(serviceManager.Assembly(), validator, logger),
		healthHandler:   NewHealthHandler(serviceManager, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", hm.healthHandler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		tests := v1.Group("/tests")
		{
			tests.GET("/:id/assembly", hm.assemblyHandler.GetAssembly)
			tests.GET("/:id/questions", hm.assemblyHandler.GetQuestions)
		}

		questions := v1.Group("/questions")
		{
			questions.GET("/:id/answers", hm.assemblyHandler.GetQuestionAnswers)
		}
	}
}
