package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/controller"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/service"
)

type AdminTestController struct {
	adminTestService service.AdminTestService
	questionService  service.QuestionService
}

func NewAdminTestController(adminTestService service.AdminTestService, questionService service.QuestionService) *AdminTestController {
	return &AdminTestController{adminTestService: adminTestService, questionService: questionService}
}

// RegisterRoutes mounts the admin endpoints on a group already guarded by
// authentication and the ADMIN role.
func (c *AdminTestController) RegisterRoutes(rg *gin.RouterGroup) {
	tests := rg.Group("/tests")
	tests.POST("", c.CreateTest)
	tests.GET("", c.GetAllTests)
	tests.GET("/:test_id", c.GetTest)
	tests.PUT("/:test_id", c.UpdateTest)
	tests.DELETE("/:test_id", c.DeleteTest)
	tests.POST("/:test_id/publish", c.PublishTest)
	tests.PUT("/:test_id/classes", c.AssignClasses)
	tests.POST("/:test_id/questions", c.AddQuestion)
	tests.GET("/:test_id/results", c.GetScoreReport)
	rg.DELETE("/questions/:question_id", c.DeleteQuestion)
}

// CreateTest godoc
// @Summary (Admin) Create a new test
// @Description Creates a test with its questions, options and class assignments in one transaction. A test without a start time, or whose start time has passed, is active immediately.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_data body dto.TestCreateDTO true "Test definition"
// @Success 201 {object} dto.AdminTestDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Unknown class"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	var req dto.TestCreateDTO
	if !controller.BindJSON(ctx, "Admin CreateTest", &req) {
		return
	}
	resp, err := c.adminTestService.CreateTest(ctx.Request.Context(), viewer, req)
	if err != nil {
		controller.RespondError(ctx, "Admin CreateTest", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetAllTests godoc
// @Summary (Admin) List own tests
// @Description Lists the tests created by the calling administrator with their resolved lifecycle state.
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AdminTestSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/tests [get]
func (c *AdminTestController) GetAllTests(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	resp, err := c.adminTestService.GetAllTests(ctx.Request.Context(), viewer)
	if err != nil {
		controller.RespondError(ctx, "Admin GetAllTests", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetTest godoc
// @Summary (Admin) Get a test
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.AdminTestDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [get]
func (c *AdminTestController) GetTest(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.adminTestService.GetTest(ctx.Request.Context(), viewer, testID)
	if err != nil {
		controller.RespondError(ctx, "Admin GetTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateTest godoc
// @Summary (Admin) Replace a test's schedule and limits
// @Description Replaces title, description, duration, attempt limit, expiry and the start/end window of an unpublished test. Activation and expiry are re-evaluated against the new schedule.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param test_data body dto.TestUpdateDTO true "New schedule"
// @Success 200 {object} dto.AdminTestDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 409 {object} dto.ErrorResponse "Test already published"
// @Router /admin/tests/{test_id} [put]
func (c *AdminTestController) UpdateTest(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.TestUpdateDTO
	if !controller.BindJSON(ctx, "Admin UpdateTest", &req) {
		return
	}
	resp, err := c.adminTestService.UpdateTest(ctx.Request.Context(), viewer, testID, req)
	if err != nil {
		controller.RespondError(ctx, "Admin UpdateTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteTest godoc
// @Summary (Admin) Delete a test
// @Description Deletes the test with its questions, options, attempts, answers and class assignments.
// @Tags Admin - Tests
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [delete]
func (c *AdminTestController) DeleteTest(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	if err := c.adminTestService.DeleteTest(ctx.Request.Context(), viewer, testID); err != nil {
		controller.RespondError(ctx, "Admin DeleteTest", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// PublishTest godoc
// @Summary (Admin) Publish results
// @Description Marks the test COMPLETE and releases results to students. The lifecycle state is frozen afterwards.
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.AdminTestDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 409 {object} dto.ErrorResponse "Already published"
// @Router /admin/tests/{test_id}/publish [post]
func (c *AdminTestController) PublishTest(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.adminTestService.PublishTest(ctx.Request.Context(), viewer, testID)
	if err != nil {
		controller.RespondError(ctx, "Admin PublishTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AssignClasses godoc
// @Summary (Admin) Replace class assignments
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param classes body dto.AssignClassesDTO true "Class IDs; an empty list unassigns every class"
// @Success 200 {object} dto.AdminTestDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Test or class not found"
// @Router /admin/tests/{test_id}/classes [put]
func (c *AdminTestController) AssignClasses(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.AssignClassesDTO
	if !controller.BindJSON(ctx, "Admin AssignClasses", &req) {
		return
	}
	resp, err := c.adminTestService.AssignClasses(ctx.Request.Context(), viewer, testID, req.ClassIDs)
	if err != nil {
		controller.RespondError(ctx, "Admin AssignClasses", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AddQuestion godoc
// @Summary (Admin) Add a question to an unpublished test
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param question body dto.QuestionCreateDTO true "Question definition; order 0 appends"
// @Success 201 {object} dto.AdminQuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 409 {object} dto.ErrorResponse "Test published or order taken"
// @Router /admin/tests/{test_id}/questions [post]
func (c *AdminTestController) AddQuestion(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.QuestionCreateDTO
	if !controller.BindJSON(ctx, "Admin AddQuestion", &req) {
		return
	}
	resp, err := c.questionService.AddQuestion(ctx.Request.Context(), viewer, testID, req)
	if err != nil {
		controller.RespondError(ctx, "Admin AddQuestion", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// DeleteQuestion godoc
// @Summary (Admin) Delete a question from an unpublished test
// @Tags Admin - Questions
// @Security BearerAuth
// @Param question_id path int true "Question ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Failure 409 {object} dto.ErrorResponse "Test published"
// @Router /admin/questions/{question_id} [delete]
func (c *AdminTestController) DeleteQuestion(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	questionID, ok := controller.ParseID(ctx, "question_id")
	if !ok {
		return
	}
	if err := c.questionService.DeleteQuestion(ctx.Request.Context(), viewer, questionID); err != nil {
		controller.RespondError(ctx, "Admin DeleteQuestion", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetScoreReport godoc
// @Summary (Admin) Score report
// @Description Latest submitted attempt of every student with roll number and score.
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.ScoreReportDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/results [get]
func (c *AdminTestController) GetScoreReport(ctx *gin.Context) {
	viewer, ok := controller.Viewer(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.adminTestService.GetScoreReport(ctx.Request.Context(), viewer, testID)
	if err != nil {
		controller.RespondError(ctx, "Admin GetScoreReport", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
