package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/dto"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.NotFound("x")))
	assert.Equal(t, http.StatusForbidden, StatusFor(apperr.Forbidden(apperr.ReasonNotEnrolled, "x")))
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("wrapped: %w", apperr.Invalid(apperr.ReasonInvalidAnswer, "x"))))
	assert.Equal(t, http.StatusConflict, StatusFor(apperr.Conflict(apperr.ReasonAttemptClosed, "x")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("db down")))
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	opens := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	RespondError(c, "test", apperr.NotYetStarted(opens))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(apperr.ReasonNotYetStarted), body.Reason)
	require.NotNil(t, body.ScheduledAt)
	assert.True(t, opens.Equal(*body.ScheduledAt))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondError(c, "test", errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused", "internal details are not leaked")
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for raw, want := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "test_id", Value: raw}}
		_, ok := ParseID(c, "test_id")
		assert.Equal(t, want, ok, raw)
		if !want {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}
