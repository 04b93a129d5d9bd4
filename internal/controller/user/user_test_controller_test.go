package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/middleware"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/policy"
)

type fakeUserTests struct{}

func (fakeUserTests) GetAllTests(context.Context, policy.Viewer) ([]dto.TestSummaryDTO, error) {
	return []dto.TestSummaryDTO{{ID: 1, Title: "Midterm"}}, nil
}

func (fakeUserTests) GetTestDetails(_ context.Context, _ policy.Viewer, id uint) (*dto.TestViewDTO, error) {
	if id != 1 {
		return nil, apperr.NotFound("test %d not found", id)
	}
	return &dto.TestViewDTO{ID: 1}, nil
}

type fakeAttempts struct {
	calls int
}

func (f *fakeAttempts) Start(_ context.Context, _ policy.Viewer, id uint) (*dto.StartAttemptDTO, error) {
	if id == 2 {
		return nil, apperr.NotYetStarted(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	}
	f.calls++
	return &dto.StartAttemptDTO{Attempt: dto.AttemptDTO{ID: 9, TestID: id}, Resumed: f.calls > 1}, nil
}

type fakeSubmissions struct {
	got dto.TestSubmitDTO
}

func (f *fakeSubmissions) Submit(_ context.Context, _ policy.Viewer, _ uint, req dto.TestSubmitDTO) (*dto.SubmitResultDTO, error) {
	f.got = req
	if len(req.Answers) == 0 {
		return nil, apperr.Invalid(apperr.ReasonRequiredUnanswered, "question 1 is required")
	}
	return &dto.SubmitResultDTO{Attempt: dto.AttemptDTO{ID: 9}}, nil
}

func (f *fakeSubmissions) GetResults(context.Context, policy.Viewer, uint) (*dto.TestResultDTO, error) {
	return nil, apperr.Forbidden(apperr.ReasonResultsPending, "results for test 1 have not been released")
}

func (f *fakeSubmissions) GetUserAttemptsForTest(context.Context, policy.Viewer, uint) ([]dto.AttemptHistoryDTO, error) {
	return []dto.AttemptHistoryDTO{{ID: 9, InProgress: true}}, nil
}

func newRouter(subs *fakeSubmissions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/api/v1", func(c *gin.Context) {
		middleware.SetViewer(c, policy.Viewer{UserID: 100, Role: model.RoleStudent})
	})
	NewUserTestController(fakeUserTests{}, &fakeAttempts{}, subs).RegisterRoutes(rg)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartAttemptStatus(t *testing.T) {
	r := newRouter(&fakeSubmissions{})

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/tests/1/attempts", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/tests/1/attempts", "").Code, "resumed")

	w := do(r, http.MethodPost, "/api/v1/tests/2/attempts", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_YET_STARTED", body.Reason)
	assert.NotNil(t, body.ScheduledAt)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/tests/x/attempts", "").Code)
}

func TestSubmitTest(t *testing.T) {
	subs := &fakeSubmissions{}
	r := newRouter(subs)

	w := do(r, http.MethodPost, "/api/v1/tests/1/submit", `{"answers":[{"question_id":3,"option_ids":[4,5]},{"question_id":6,"text_answer":"because"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, subs.got.Answers, 2)
	assert.Equal(t, []uint{4, 5}, subs.got.Answers[0].OptionIDs)
	require.NotNil(t, subs.got.Answers[1].TextAnswer)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/tests/1/submit", `{"answers":[{"option_id":4}]}`).Code, "question_id is required")
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/tests/1/submit", `{not json`).Code)

	w = do(r, http.MethodPost, "/api/v1/tests/1/submit", `{"answers":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "REQUIRED_UNANSWERED")
}

func TestReadEndpoints(t *testing.T) {
	r := newRouter(&fakeSubmissions{})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/tests", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/tests/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/tests/5", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/tests/1/results", "").Code)

	w := do(r, http.MethodGet, "/api/v1/tests/1/my-attempts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"in_progress":true`)
}

func TestRequiresViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewUserTestController(fakeUserTests{}, &fakeAttempts{}, &fakeSubmissions{}).RegisterRoutes(r.Group("/api/v1"))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/tests", "").Code)
}
