package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/controller"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/service"
	"github.com/rs/zerolog/log"
)

type UserTestController struct {
	userTestService       service.UserTestService
	attemptService        service.AttemptService
	testSubmissionService service.TestSubmissionService
}

func NewUserTestController(uts service.UserTestService, as service.AttemptService, tss service.TestSubmissionService) *UserTestController {
	return &UserTestController{
		userTestService:       uts,
		attemptService:        as,
		testSubmissionService: tss,
	}
}

// RegisterRoutes mounts the student endpoints on a group already guarded by
// authentication and the STUDENT role.
func (c *UserTestController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tests", c.GetAllTests)
	rg.GET("/tests/:test_id", c.GetTestDetails)
	rg.POST("/tests/:test_id/attempts", c.StartAttempt)
	rg.POST("/tests/:test_id/submit", c.SubmitTest)
	rg.GET("/tests/:test_id/results", c.GetResults)
	rg.GET("/tests/:test_id/my-attempts", c.GetUserTestAttempts)
}

// GetAllTests godoc
// @Summary (User) List available tests
// @Description Active tests whose end time has not passed. Listing is not restricted by class enrollment.
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests [get]
func (c *UserTestController) GetAllTests(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	tests, err := c.userTestService.GetAllTests(ctx.Request.Context(), viewer)
	if err != nil {
		controller.RespondError(ctx, "User GetAllTests", err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestDetails godoc
// @Summary (User) Get details of a specific test
// @Description Test detail for an enrolled student. Correct options are hidden until results are published; afterwards the student's latest answers are marked.
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestViewDTO
// @Failure 403 {object} dto.ErrorResponse "NOT_AVAILABLE, EXPIRED or NOT_ENROLLED"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id} [get]
func (c *UserTestController) GetTestDetails(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	view, err := c.userTestService.GetTestDetails(ctx.Request.Context(), viewer, testID)
	if err != nil {
		controller.RespondError(ctx, "User GetTestDetails", err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// StartAttempt godoc
// @Summary (User) Start or resume an attempt
// @Description Returns the in-progress attempt if one exists, otherwise opens a new one when the attempt limit allows.
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 201 {object} dto.StartAttemptDTO "New attempt"
// @Success 200 {object} dto.StartAttemptDTO "Resumed attempt"
// @Failure 400 {object} dto.ErrorResponse "NOT_YET_STARTED (with scheduled_at) or ENDED"
// @Failure 403 {object} dto.ErrorResponse "NOT_ENROLLED, NOT_AVAILABLE, EXPIRED, ALREADY_COMPLETED or MAX_ATTEMPTS_REACHED"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id}/attempts [post]
func (c *UserTestController) StartAttempt(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.Start(ctx.Request.Context(), viewer, testID)
	if err != nil {
		controller.RespondError(ctx, "User StartAttempt", err)
		return
	}
	status := http.StatusCreated
	if resp.Resumed {
		status = http.StatusOK
	}
	ctx.JSON(status, resp)
}

// SubmitTest godoc
// @Summary (User) Submit the in-progress attempt
// @Description Stores every answer and the score atomically. The score is only returned once results may be shown.
// @Tags User - Tests & Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param submission_data body dto.TestSubmitDTO true "Answers"
// @Success 200 {object} dto.SubmitResultDTO
// @Failure 400 {object} dto.ErrorResponse "INVALID_ANSWER, REQUIRED_UNANSWERED or DEADLINE_EXCEEDED"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 409 {object} dto.ErrorResponse "ATTEMPT_CLOSED"
// @Router /tests/{test_id}/submit [post]
func (c *UserTestController) SubmitTest(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.TestSubmitDTO
	if !controller.BindJSON(ctx, "User SubmitTest", &req) {
		return
	}

	log.Info().Uint("testID", testID).Uint("userID", viewer.UserID).Int("answerCount", len(req.Answers)).Msg("Received request to submit test attempt")
	resp, err := c.testSubmissionService.Submit(ctx.Request.Context(), viewer, testID, req)
	if err != nil {
		controller.RespondError(ctx, "User SubmitTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetResults godoc
// @Summary (User) Get results of the latest submitted attempt
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResultDTO
// @Failure 403 {object} dto.ErrorResponse "RESULTS_PENDING"
// @Failure 404 {object} dto.ErrorResponse "No submitted attempt"
// @Router /tests/{test_id}/results [get]
func (c *UserTestController) GetResults(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.testSubmissionService.GetResults(ctx.Request.Context(), viewer, testID)
	if err != nil {
		controller.RespondError(ctx, "User GetResults", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetUserTestAttempts godoc
// @Summary (User) List own attempts for a test
// @Description Scores stay hidden until results are published.
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.AttemptHistoryDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id}/my-attempts [get]
func (c *UserTestController) GetUserTestAttempts(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	attempts, err := c.testSubmissionService.GetUserAttemptsForTest(ctx.Request.Context(), viewer, testID)
	if err != nil {
		controller.RespondError(ctx, "User GetUserTestAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}
