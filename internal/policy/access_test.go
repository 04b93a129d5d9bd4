package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/model"
)

var (
	now     = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	admin   = Viewer{UserID: 1, Role: model.RoleAdmin}
	other   = Viewer{UserID: 2, Role: model.RoleAdmin}
	student = Viewer{UserID: 7, Role: model.RoleStudent}
)

func ptime(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func activeTest() *model.Test {
	return &model.Test{ID: 10, CreatedBy: 1, IsActive: true, Status: model.TestStatusDraft, MaxAttempts: model.Limited(2)}
}

func published() *model.Test {
	t := activeTest()
	t.IsPublished = true
	t.Status = model.TestStatusComplete
	return t
}

func TestCanList(t *testing.T) {
	x := activeTest()
	assert.True(t, CanList(admin, x, now))
	assert.False(t, CanList(other, x, now), "admins only list their own tests")
	assert.True(t, CanList(student, x, now))

	x.EndTime = ptime(-time.Minute)
	assert.False(t, CanList(student, x, now))
	x.EndTime = ptime(time.Minute)
	assert.True(t, CanList(student, x, now))

	x.IsActive = false
	assert.False(t, CanList(student, x, now))
}

func TestCheckView(t *testing.T) {
	expired := activeTest()
	expired.IsActive = false
	expired.Status = model.TestStatusExpired

	inactive := activeTest()
	inactive.IsActive = false

	tests := []struct {
		name        string
		viewer      Viewer
		test        *model.Test
		classAccess bool
		reason      apperr.Reason
	}{
		{name: "enrolled student on active test", viewer: student, test: activeTest(), classAccess: true},
		{name: "published test stays visible", viewer: student, test: published(), classAccess: true},
		{name: "not enrolled", viewer: student, test: activeTest(), reason: apperr.ReasonNotEnrolled},
		{name: "inactive", viewer: student, test: inactive, classAccess: true, reason: apperr.ReasonNotAvailable},
		{name: "expired", viewer: student, test: expired, classAccess: true, reason: apperr.ReasonExpired},
		{name: "owner", viewer: admin, test: activeTest()},
		{name: "other admin", viewer: other, test: activeTest(), reason: apperr.ReasonNotOwner},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckView(tc.viewer, tc.test, tc.classAccess)
			if tc.reason == apperr.ReasonNone {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.reason, apperr.ReasonOf(err))
			e, _ := apperr.As(err)
			assert.Equal(t, apperr.KindForbidden, e.Kind)
		})
	}
}

func TestCheckStart(t *testing.T) {
	future := activeTest()
	future.IsActive = false
	future.StartTime = ptime(time.Hour)

	ended := activeTest()
	ended.EndTime = ptime(-time.Minute)

	unlimited := activeTest()
	unlimited.MaxAttempts = model.Unlimited()

	tests := []struct {
		name   string
		test   *model.Test
		facts  AttemptFacts
		reason apperr.Reason
	}{
		{name: "first attempt", test: activeTest()},
		{name: "second attempt", test: activeTest(), facts: AttemptFacts{Used: 1, HasSubmitted: true}},
		{name: "cap reached", test: activeTest(), facts: AttemptFacts{Used: 2, HasSubmitted: true}, reason: apperr.ReasonMaxAttemptsReached},
		{name: "resume ignores cap", test: activeTest(), facts: AttemptFacts{Used: 2, HasOpen: true, HasSubmitted: true}},
		{name: "unlimited", test: unlimited, facts: AttemptFacts{Used: 20, HasSubmitted: true}},
		{name: "not yet started", test: future, reason: apperr.ReasonNotYetStarted},
		{name: "ended", test: ended, reason: apperr.ReasonEnded},
		{name: "completed and published", test: published(), facts: AttemptFacts{Used: 1, HasSubmitted: true}, reason: apperr.ReasonAlreadyCompleted},
		{name: "published without attempts", test: published()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckStart(student, tc.test, now, true, tc.facts)
			if tc.reason == apperr.ReasonNone {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.reason, apperr.ReasonOf(err))
		})
	}
}

func TestCheckStartSurfacesSchedule(t *testing.T) {
	x := activeTest()
	x.IsActive = false
	x.StartTime = ptime(time.Hour)

	e, ok := apperr.As(CheckStart(student, x, now, true, AttemptFacts{}))
	require.True(t, ok)
	require.NotNil(t, e.ScheduledAt)
	assert.Equal(t, *x.StartTime, *e.ScheduledAt)
}

func TestCheckStartHidesScheduleFromOutsiders(t *testing.T) {
	future := activeTest()
	future.IsActive = false
	future.StartTime = ptime(time.Hour)
	ended := activeTest()
	ended.EndTime = ptime(-time.Minute)

	for _, x := range []*model.Test{future, ended, activeTest()} {
		e, ok := apperr.As(CheckStart(student, x, now, false, AttemptFacts{}))
		require.True(t, ok)
		assert.Equal(t, apperr.ReasonNotEnrolled, e.Reason)
		assert.Nil(t, e.ScheduledAt)
	}
}

func TestCheckStartRejectsAdmins(t *testing.T) {
	assert.Error(t, CheckStart(admin, activeTest(), now, true, AttemptFacts{}))
}

func TestCheckResults(t *testing.T) {
	err := CheckResults(student, activeTest(), false)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, e.Kind)

	assert.Equal(t, apperr.ReasonResultsPending, apperr.ReasonOf(CheckResults(student, activeTest(), true)))
	assert.NoError(t, CheckResults(student, published(), true))
	assert.NoError(t, CheckResults(admin, activeTest(), false))
	assert.Equal(t, apperr.ReasonNotOwner, apperr.ReasonOf(CheckResults(other, activeTest(), false)))
}
