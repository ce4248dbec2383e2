package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler holds what every handler needs
type BaseHandler struct {
	logger *slog.Logger
}

func NewBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs the start of a request with its id and path
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...interface{}) {
	attrs := append([]interface{}{
		"request_id", c.GetString("request_id"),
		"method", c.Request.Method,
		"path", c.FullPath(),
	}, args...)
	h.logger.InfoContext(c.Request.Context(), msg, attrs...)
}

// RespondWithError writes an ErrorResponse and logs server-side failures
func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, err error) {
	if status >= 500 {
		h.logger.ErrorContext(c.Request.Context(), message,
			"request_id", c.GetString("request_id"),
			"status", status,
			"error", err)
	}
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}
