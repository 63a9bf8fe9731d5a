package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement/models"
	"placement/storage"
)

type lifecycleFixture struct {
	apps     *ApplicationService
	store    *storage.MemoryStorage
	mailer   *recordingMailer
	notifier *Notifier
	clock    *fakeClock
	admin    *models.User
	student  *models.User
	job      *models.Job
}

func newLifecycleFixture(t *testing.T, enforceDeadline bool) *lifecycleFixture {
	f := &lifecycleFixture{
		store:  storage.NewMemoryStorage(),
		mailer: &recordingMailer{},
		clock:  newClock(),
	}
	f.notifier = NewNotifier(f.mailer)
	f.apps = NewApplicationService(f.store, f.notifier, ApplicationOptions{EnforceDeadline: enforceDeadline, Now: f.clock.Now})
	f.admin = mustUser(f.store, "admin@acme.com", "Grace", models.RoleAdmin)
	f.student = mustUser(f.store, "a@b.com", "Ada", models.RoleStudent)
	f.job = f.postJob(t, f.admin.ID, f.clock.Now().AddDate(0, 0, 7))
	return f
}

func (f *lifecycleFixture) postJob(t *testing.T, adminID string, deadline time.Time) *models.Job {
	job := &models.Job{
		Title: "Intern", Company: "Acme", Location: "Remote",
		Description: "Build things", Requirements: "go", Deadline: deadline, PostedBy: adminID,
	}
	require.NoError(t, f.store.CreateJob(context.Background(), job))
	return job
}

func TestApplyCreatesPendingAndNotifies(t *testing.T) {
	f := newLifecycleFixture(t, true)

	app, err := f.apps.Apply(context.Background(), f.student.ID, f.job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, f.job.ID, app.JobID)
	assert.Equal(t, f.student.ID, app.StudentID)

	f.notifier.Wait()
	toStudent := f.mailer.SentTo("a@b.com")
	require.Len(t, toStudent, 1)
	assert.Equal(t, "Application Submitted - Intern", toStudent[0].Subject)
	toAdmin := f.mailer.SentTo("admin@acme.com")
	require.Len(t, toAdmin, 1)
	assert.Contains(t, toAdmin[0].HTML, "Ada")
}

func TestApplyTwiceFails(t *testing.T) {
	f := newLifecycleFixture(t, true)
	ctx := context.Background()

	_, err := f.apps.Apply(ctx, f.student.ID, f.job.ID)
	require.NoError(t, err)
	_, err = f.apps.Apply(ctx, f.student.ID, f.job.ID)
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.ErrorIs(t, err, ErrConflict)

	mine, err := f.apps.ListForStudent(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Job)
	assert.Equal(t, "Intern", mine[0].Job.Title)
}

func TestReapplyAfterDeadlineReportsAlreadyApplied(t *testing.T) {
	f := newLifecycleFixture(t, true)
	ctx := context.Background()

	_, err := f.apps.Apply(ctx, f.student.ID, f.job.ID)
	require.NoError(t, err)

	f.clock.Advance(9 * 24 * time.Hour)
	_, err = f.apps.Apply(ctx, f.student.ID, f.job.ID)
	assert.ErrorIs(t, err, ErrAlreadyApplied)
}

func TestConcurrentApplyCreatesOne(t *testing.T) {
	f := newLifecycleFixture(t, true)
	ctx := context.Background()

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.apps.Apply(ctx, f.student.ID, f.job.ID); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok)

	apps, err := f.store.ListApplicationsByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestApplyUnknownJob(t *testing.T) {
	f := newLifecycleFixture(t, true)
	_, err := f.apps.Apply(context.Background(), f.student.ID, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyDeadline(t *testing.T) {
	cases := []struct {
		name     string
		enforce  bool
		deadline time.Time
		wantErr  error
	}{
		{"yesterday enforced", true, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), ErrDeadlinePassed},
		{"today enforced", true, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil},
		{"yesterday not enforced", false, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), nil},
		{"today in another zone", true, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).In(time.FixedZone("EST", -5*60*60)), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newLifecycleFixture(t, tc.enforce)
			job := f.postJob(t, f.admin.ID, tc.deadline)
			_, err := f.apps.Apply(context.Background(), f.student.ID, job.ID)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestSetStatusByOwner(t *testing.T) {
	f := newLifecycleFixture(t, true)
	ctx := context.Background()
	app, err := f.apps.Apply(ctx, f.student.ID, f.job.ID)
	require.NoError(t, err)
	f.notifier.Wait()

	updated, err := f.apps.SetStatus(ctx, f.admin.ID, app.ID, models.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, updated.Status)

	f.notifier.Wait()
	toStudent := f.mailer.SentTo("a@b.com")
	require.Len(t, toStudent, 2)
	assert.Equal(t, "Application Accepted - Intern", toStudent[1].Subject)
}

func TestSetStatusByOtherAdminIsForbidden(t *testing.T) {
	f := newLifecycleFixture(t, true)
	ctx := context.Background()
	other := mustUser(f.store, "other@acme.com", "Linus", models.RoleAdmin)
	app, err := f.apps.Apply(ctx, f.student.ID, f.job.ID)
	require.NoError(t, err)

	_, err = f.apps.SetStatus(ctx, other.ID, app.ID, models.StatusDeclined)
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := f.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestDecisionIsTerminal(t *testing.T) {
	f := newLifecycleFixture(t, true)
	ctx := context.Background()
	app, err := f.apps.Apply(ctx, f.student.ID, f.job.ID)
	require.NoError(t, err)

	_, err = f.apps.SetStatus(ctx, f.admin.ID, app.ID, models.StatusDeclined)
	require.NoError(t, err)

	_, err = f.apps.SetStatus(ctx, f.admin.ID, app.ID, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	stored, err := f.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, stored.Status)
}

func TestSetStatusValidation(t *testing.T) {
	f := newLifecycleFixture(t, true)
	ctx := context.Background()

	_, err := f.apps.SetStatus(ctx, f.admin.ID, "anything", models.StatusPending)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.apps.SetStatus(ctx, f.admin.ID, "missing", models.StatusAccepted)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestNotificationFailureDoesNotFailApply(t *testing.T) {
	f := newLifecycleFixture(t, true)
	f.mailer.fail = true

	app, err := f.apps.Apply(context.Background(), f.student.ID, f.job.ID)
	require.NoError(t, err)
	f.notifier.Wait()

	_, err = f.apps.SetStatus(context.Background(), f.admin.ID, app.ID, models.StatusAccepted)
	require.NoError(t, err)
	f.notifier.Wait()
}

func TestListForJob(t *testing.T) {
	f := newLifecycleFixture(t, true)
	ctx := context.Background()
	_, err := f.apps.Apply(ctx, f.student.ID, f.job.ID)
	require.NoError(t, err)

	apps, err := f.apps.ListForJob(ctx, f.admin.ID, f.job.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].Student)
	assert.Equal(t, models.Profile{ID: f.student.ID, Email: "a@b.com", Name: "Ada", Role: models.RoleStudent}, *apps[0].Student)

	other := mustUser(f.store, "other@acme.com", "Linus", models.RoleAdmin)
	_, err = f.apps.ListForJob(ctx, other.ID, f.job.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.apps.ListForJob(ctx, f.admin.ID, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestApplyStorageFailure(t *testing.T) {
	svc := NewApplicationService(brokenStorage{Storage: storage.NewMemoryStorage()}, NewNotifier(&recordingMailer{}), ApplicationOptions{})
	_, err := svc.Apply(context.Background(), "stu", "job")
	assert.ErrorIs(t, err, ErrUpstream)
}
