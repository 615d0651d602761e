package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumilearn/tutor-backend/internal/middleware"
	"github.com/lumilearn/tutor-backend/internal/response"
	"github.com/lumilearn/tutor-backend/internal/service"
)

// ProgressHandler serves the cross-topic progress report.
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Report godoc
// GET /api/v1/student/progress
// Summarizes the student's standing in every topic.
func (h *ProgressHandler) Report(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	topics, err := h.progressService.Report(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"topics": topics})
}
