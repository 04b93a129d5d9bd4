package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lshigami/examhall/database"
	"github.com/lshigami/examhall/internal/clock"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/policy"
	"github.com/lshigami/examhall/internal/repository"
)

var (
	t0       = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	owner    = policy.Viewer{UserID: 1, Role: model.RoleAdmin}
	outsider = policy.Viewer{UserID: 2, Role: model.RoleAdmin}
	alice    = policy.Viewer{UserID: 100, Role: model.RoleStudent}
	bob      = policy.Viewer{UserID: 101, Role: model.RoleStudent}
)

type fixture struct {
	ctx   context.Context
	db    *gorm.DB
	clock *clock.Manual

	tests       TestService
	admin       AdminTestService
	questions   QuestionService
	user        UserTestService
	attempts    AttemptService
	submissions TestSubmissionService
	sweeper     *LifecycleSweeper

	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	classID     uint
}

func newFixture(t *testing.T, settings Settings) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes
	// transactions the way row locks do on Postgres.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	clk := clock.NewManual(t0)
	testRepo := repository.NewTestRepository(db)
	attemptRepo := repository.NewTestAttemptRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	questionRepo := repository.NewQuestionRepository(db)

	tests := NewTestService(testRepo, repository.NewEnrollmentRepository(db), clk)
	f := &fixture{
		ctx:         context.Background(),
		db:          db,
		clock:       clk,
		tests:       tests,
		admin:       NewAdminTestService(tests, testRepo, repository.NewClassRepository(db), attemptRepo, repository.NewProfileRepository(db), db),
		questions:   NewQuestionService(questionRepo, tests),
		user:        NewUserTestService(tests, testRepo, attemptRepo, settings),
		attempts:    NewAttemptService(tests, testRepo, attemptRepo, settings, db),
		submissions: NewTestSubmissionService(tests, attemptRepo, answerRepo, settings, db),
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
	}
	f.sweeper = &LifecycleSweeper{tests: tests}

	class := model.Class{Name: "10A"}
	require.NoError(t, db.Create(&class).Error)
	f.classID = class.ID
	f.enroll(t, alice.UserID, model.EnrollmentApproved)
	return f
}

func (f *fixture) enroll(t *testing.T, userID uint, status model.EnrollmentStatus) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.Enrollment{UserID: userID, ClassID: f.classID, Status: status}).Error)
}

// failWrites makes inserts and updates on table fail until the returned
// function is called.
func (f *fixture) failWrites(t *testing.T, table string) (restore func()) {
	t.Helper()
	var failing atomic.Bool
	failing.Store(true)
	fail := func(db *gorm.DB) {
		if failing.Load() && db.Statement.Table == table {
			db.AddError(fmt.Errorf("write to %s refused", table))
		}
	}
	name := "examhall:fail_" + table
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register(name, fail))
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register(name, fail))
	return func() { failing.Store(false) }
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

// sampleRequest builds an MCQ, a CHECKBOX and a TEXT question assigned to
// the fixture class with a cap of two attempts.
func (f *fixture) sampleRequest() dto.TestCreateDTO {
	return dto.TestCreateDTO{
		TestScheduleDTO: dto.TestScheduleDTO{Title: "Midterm", Duration: 30, MaxAttempts: intPtr(2)},
		ClassIDs:        []uint{f.classID},
		Questions: []dto.QuestionCreateDTO{
			{Text: "2+2?", Type: "MCQ", Required: true, Options: []dto.OptionCreateDTO{{Text: "3"}, {Text: "4", IsCorrect: true}}},
			{Text: "Primes", Type: "CHECKBOX", Options: []dto.OptionCreateDTO{{Text: "2", IsCorrect: true}, {Text: "4"}, {Text: "5", IsCorrect: true}}},
			{Text: "Explain", Type: "TEXT"},
		},
	}
}

func (f *fixture) createTest(t *testing.T, req dto.TestCreateDTO) *dto.AdminTestDTO {
	t.Helper()
	created, err := f.admin.CreateTest(f.ctx, owner, req)
	require.NoError(t, err)
	return created
}

func optionID(t *testing.T, q dto.AdminQuestionDTO, text string) uint {
	t.Helper()
	for _, o := range q.Options {
		if o.Text == text {
			return o.ID
		}
	}
	t.Fatalf("option %q not found in question %d", text, q.ID)
	return 0
}

// answers returns a submission with a correct MCQ, a wrong CHECKBOX and a
// free-text answer: one of three questions correct.
func answers(t *testing.T, test *dto.AdminTestDTO) dto.TestSubmitDTO {
	t.Helper()
	mcq, box, text := test.Questions[0], test.Questions[1], test.Questions[2]
	four := optionID(t, mcq, "4")
	return dto.TestSubmitDTO{Answers: []dto.AnswerSubmitDTO{
		{QuestionID: mcq.ID, OptionID: &four},
		{QuestionID: box.ID, OptionIDs: []uint{optionID(t, box, "2")}},
		{QuestionID: text.ID, TextAnswer: strPtr("because")},
	}}
}

func (f *fixture) startAndSubmit(t *testing.T, viewer policy.Viewer, test *dto.AdminTestDTO) *dto.SubmitResultDTO {
	t.Helper()
	_, err := f.attempts.Start(f.ctx, viewer, test.ID)
	require.NoError(t, err)
	res, err := f.submissions.Submit(f.ctx, viewer, test.ID, answers(t, test))
	require.NoError(t, err)
	return res
}
