package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumilearn/tutor-backend/internal/response"
	"github.com/lumilearn/tutor-backend/internal/service"
)

// ContentHandler serves the curriculum catalogue: topics and step metadata
// for the learn pages. Content is immutable after startup, so these
// endpoints read straight from memory.
type ContentHandler struct {
	tutorService *service.TutorService
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(tutorService *service.TutorService) *ContentHandler {
	return &ContentHandler{tutorService: tutorService}
}

// ListTopics godoc
// GET /api/v1/student/topics
func (h *ContentHandler) ListTopics(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"topics": h.tutorService.Topics(),
	})
}

// ListSteps godoc
// GET /api/v1/student/topics/:topic/learn/steps
// Returns step metadata (icon, title, description, section counts) without
// the section bodies; those arrive through the tutor session.
func (h *ContentHandler) ListSteps(c *gin.Context) {
	steps, err := h.tutorService.Steps(c.Param("topic"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrTopicNotSupported)
		return
	}

	out := make([]gin.H, 0, len(steps))
	for _, step := range steps {
		out = append(out, gin.H{
			"ordinal":     step.Ordinal,
			"icon":        step.Meta.Icon,
			"title":       step.Meta.Title,
			"description": step.Meta.Description,
			"sections":    len(step.Sections),
		})
	}
	response.Success(c, http.StatusOK, gin.H{"steps": out})
}
