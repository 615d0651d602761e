package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lumilearn/tutor-backend/internal/oracle"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFailStartErrorResumeOutage(t *testing.T) {
	h := NewTutorHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.failStartError(c, fmt.Errorf("resume message: %w", oracle.ErrGenerationUnavailable))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	if !strings.Contains(w.Body.String(), "RESUME_UNAVAILABLE") {
		t.Errorf("body = %s, want RESUME_UNAVAILABLE code", w.Body.String())
	}
}

func TestFailTutorErrorChatOutage(t *testing.T) {
	h := NewTutorHandler(nil)

	for _, err := range []error{
		fmt.Errorf("judge answer: %w", oracle.ErrEvaluationUnavailable),
		fmt.Errorf("hint: %w", oracle.ErrGenerationUnavailable),
	} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		h.failTutorError(c, err)

		if w.Code != http.StatusBadGateway {
			t.Errorf("%v: status = %d, want %d", err, w.Code, http.StatusBadGateway)
		}
		if !strings.Contains(w.Body.String(), "EVALUATOR_UNAVAILABLE") {
			t.Errorf("%v: body = %s, want EVALUATOR_UNAVAILABLE code", err, w.Body.String())
		}
	}
}
