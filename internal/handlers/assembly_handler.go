package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
	"github.com/SAP-F-2025/exam-assembly-service/internal/services"
	"github.com/SAP-F-2025/exam-assembly-service/internal/validator"
)

type AssemblyHandler struct {
	BaseHandler
	service   services.AssemblyService
	validator *validator.Validator
}

func NewAssemblyHandler(service services.AssemblyService, validator *validator.Validator, logger *slog.Logger) *AssemblyHandler {
	return &AssemblyHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// AnswersResponse is the body of the single-question answers endpoint
type AnswersResponse struct {
	QuestionID string           `json:"question_id"`
	Type       string           `json:"type,omitempty"`
	Answers    models.AnswerSet `json:"answers"`
}

// ===== ASSEMBLY ENDPOINTS =====

// GetAssembly assembles a test with all answers
// @Summary Assemble a test
// @Description Returns test metadata, ordered questions and their answers, plus diagnostics
// @Tags assembly
// @Produce json
// @Param id path string true "Test ID"
// @Param session_id query string false "Existing session id to resume"
// @Success 200 {object} services.AssemblyResult
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 422 {object} ErrorResponse "Unsupported question type"
// @Router /tests/{id}/assembly [get]
func (h *AssemblyHandler) GetAssembly(c *gin.Context) {
	h.LogRequest(c, "Assembling test", "test_id", c.Param("id"))

	req, ok := h.bindAssemblyRequest(c)
	if !ok {
		return
	}

	result, err := h.service.AssembleSession(c.Request.Context(), req.TestID, req.SessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetQuestions assembles a test without answers
// @Summary Assemble test questions only
// @Tags assembly
// @Produce json
// @Param id path string true "Test ID"
// @Param session_id query string false "Existing session id to resume"
// @Success 200 {object} services.AssemblyResult
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /tests/{id}/questions [get]
func (h *AssemblyHandler) GetQuestions(c *gin.Context) {
	h.LogRequest(c, "Assembling test questions", "test_id", c.Param("id"))

	req, ok := h.bindAssemblyRequest(c)
	if !ok {
		return
	}

	result, err := h.service.AssembleQuestionsOnly(c.Request.Context(), req.TestID, req.SessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetQuestionAnswers resolves the answers of one question on demand
// @Summary Get answers of a question
// @Tags assembly
// @Produce json
// @Param id path string true "Question ID"
// @Param type query string false "Question type, defaults to the stored type"
// @Success 200 {object} AnswersResponse
// @Failure 400 {object} ErrorResponse "Invalid request, unknown or mismatched question type"
// @Failure 404 {object} ErrorResponse "Question not found"
// @Failure 503 {object} ErrorResponse "Answers unavailable"
// @Router /questions/{id}/answers [get]
func (h *AssemblyHandler) GetQuestionAnswers(c *gin.Context) {
	h.LogRequest(c, "Fetching question answers", "question_id", c.Param("id"))

	req := validator.AnswersRequest{
		QuestionID: c.Param("id"),
		Type:       c.Query("type"),
	}
	if errs := h.validator.GetBusinessValidator().ValidateAnswersRequest(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: errs,
		})
		return
	}

	answers, err := h.service.FetchAnswersForQuestion(c.Request.Context(), req.QuestionID, models.QuestionType(req.Type))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnswersResponse{
		QuestionID: req.QuestionID,
		Type:       req.Type,
		Answers:    answers,
	})
}

func (h *AssemblyHandler) bindAssemblyRequest(c *gin.Context) (*validator.AssemblyRequest, bool) {
	req := &validator.AssemblyRequest{
		TestID:    c.Param("id"),
		SessionID: c.Query("session_id"),
	}
	if errs := h.validator.GetBusinessValidator().ValidateAssemblyRequest(req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: errs,
		})
		return nil, false
	}
	return req, true
}

func (h *AssemblyHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var timeoutErr *services.TimeoutError
	var partitionErr *services.AnswerPartitionError
	switch {
	case errors.Is(err, services.ErrUnknownQuestionType):
		h.RespondWithError(c, http.StatusUnprocessableEntity, "Unsupported question type", err)
	case errors.Is(err, services.ErrQuestionTypeMismatch):
		h.RespondWithError(c, http.StatusBadRequest, "Question type mismatch", err)
	case repositories.IsNotFoundError(err):
		h.RespondWithError(c, http.StatusNotFound, "Question not found", err)
	case errors.As(err, &timeoutErr):
		h.RespondWithError(c, http.StatusGatewayTimeout, "Answer store timed out", err)
	case errors.As(err, &partitionErr):
		h.RespondWithError(c, http.StatusServiceUnavailable, "Answers unavailable", err)
	case errors.Is(err, services.ErrQuestionUnavailable):
		h.RespondWithError(c, http.StatusServiceUnavailable, "Question unavailable", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
