package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumilearn/tutor-backend/internal/middleware"
	"github.com/lumilearn/tutor-backend/internal/model"
	"github.com/lumilearn/tutor-backend/internal/oracle"
	"github.com/lumilearn/tutor-backend/internal/response"
	"github.com/lumilearn/tutor-backend/internal/service"
	"github.com/lumilearn/tutor-backend/internal/tutor"
	"github.com/lumilearn/tutor-backend/internal/validator"
)

// TutorHandler handles the tutoring session endpoints.
type TutorHandler struct {
	tutorService *service.TutorService
}

// NewTutorHandler creates a new TutorHandler.
func NewTutorHandler(tutorService *service.TutorService) *TutorHandler {
	return &TutorHandler{tutorService: tutorService}
}

// Start godoc
// POST /api/v1/student/topics/:topic/tutor/start
// Opens or resumes a tutoring session for the topic.
func (h *TutorHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.tutorService.Start(c.Request.Context(), claims.UserID, c.Param("topic"))
	if err != nil {
		h.failStartError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Chat godoc
// POST /api/v1/student/topics/:topic/tutor/chat
// Judges one student answer and returns the tutor's reply.
func (h *TutorHandler) Chat(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ChatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// An all-whitespace answer passes min-length validation but carries no
	// content to judge; reject it before touching the evaluator.
	if strings.TrimSpace(req.StudentAnswer) == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrAnswerRequired)
		return
	}

	result, err := h.tutorService.Chat(c.Request.Context(), claims.UserID, c.Param("topic"), &req)
	if err != nil {
		h.failTutorError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Status godoc
// GET /api/v1/student/topics/:topic/tutor/status
// Reports per-step progress for the topic.
func (h *TutorHandler) Status(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	status, err := h.tutorService.Status(c.Request.Context(), claims.UserID, c.Param("topic"))
	if err != nil {
		h.failTutorError(c, err)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// Reset godoc
// POST /api/v1/student/topics/:topic/tutor/reset
// Wipes the student's progress and conversation for the topic.
func (h *TutorHandler) Reset(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.tutorService.Reset(c.Request.Context(), claims.UserID, c.Param("topic")); err != nil {
		h.failTutorError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// PracticeReview godoc
// POST /api/v1/student/topics/:topic/tutor/practice-review
// Returns the review greeting for a finished topic.
func (h *TutorHandler) PracticeReview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	msg, err := h.tutorService.PracticeReview(c.Request.Context(), claims.UserID, c.Param("topic"))
	if err != nil {
		h.failTutorError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": msg})
}

// failStartError maps session-open errors. A generator outage here means the
// opening or resume message could not be produced, which gets its own code so
// clients can distinguish it from a failed chat turn.
func (h *TutorHandler) failStartError(c *gin.Context, err error) {
	if errors.Is(err, oracle.ErrGenerationUnavailable) {
		response.Fail(c, http.StatusBadGateway, response.ErrResumeUnavailable)
		return
	}
	h.failTutorError(c, err)
}

// failTutorError maps domain errors to the API surface. Oracle outages are a
// 502: the turn was not judged and the client should retry it unchanged.
func (h *TutorHandler) failTutorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTopicNotSupported):
		response.FailWithFields(c, http.StatusNotFound, response.ErrTopicNotSupported, map[string]string{
			"available_topics": strings.Join(h.tutorService.Topics(), ", "),
		})
	case errors.Is(err, tutor.ErrUnknownSection):
		response.Fail(c, http.StatusInternalServerError, response.ErrSectionNotFound)
	case errors.Is(err, oracle.ErrEvaluationUnavailable), errors.Is(err, oracle.ErrGenerationUnavailable):
		response.Fail(c, http.StatusBadGateway, response.ErrEvaluatorUnavailable)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
