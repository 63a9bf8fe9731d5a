package services

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"placement/metrics"
	"placement/models"
	"placement/storage"
	"placement/utils"
)

type ApplicationOptions struct {
	// EnforceDeadline rejects applications after the job's deadline day.
	EnforceDeadline bool
	Now             func() time.Time
}

// ApplicationService owns the application state machine: pending on
// creation, then exactly one decision by the admin who posted the job.
type ApplicationService struct {
	store    storage.Storage
	notifier *Notifier
	locks    *utils.KeyLock

	enforceDeadline bool
	now             func() time.Time
}

func NewApplicationService(store storage.Storage, notifier *Notifier, opts ApplicationOptions) *ApplicationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ApplicationService{
		store:           store,
		notifier:        notifier,
		locks:           utils.NewKeyLock(),
		enforceDeadline: opts.EnforceDeadline,
		now:             opts.Now,
	}
}

// Apply files a pending application for studentID. At most one application
// exists per (job, student); the check and insert run under a per-pair lock
// and SQL backends back it with a unique index.
func (s *ApplicationService) Apply(ctx context.Context, studentID, jobID string) (*models.Application, error) {
	if jobID == "" {
		return nil, FieldErrors{"jobId": "is required"}
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, upstream(err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}

	unlock := s.locks.Lock(jobID + "/" + studentID)
	defer unlock()

	existing, err := s.store.GetApplicationByJobAndStudent(ctx, jobID, studentID)
	if err != nil {
		return nil, upstream(err)
	}
	if existing != nil {
		return nil, ErrAlreadyApplied
	}
	if s.enforceDeadline && DeadlinePassed(job.Deadline, s.now()) {
		return nil, ErrDeadlinePassed
	}

	app := &models.Application{
		JobID:     jobID,
		StudentID: studentID,
		Status:    models.StatusPending,
		AppliedAt: s.now(),
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrAlreadyApplied
		}
		return nil, upstream(err)
	}
	metrics.ApplicationSubmitted()
	log.WithFields(log.Fields{"application_id": app.ID, "job_id": jobID, "student_id": studentID}).Info("application submitted")

	s.notifyApplied(ctx, studentID, job)
	return app, nil
}

func (s *ApplicationService) notifyApplied(ctx context.Context, studentID string, job *models.Job) {
	student, err := s.store.GetUser(ctx, studentID)
	if err != nil {
		log.WithError(err).Warn("load student for notification")
		return
	}
	admin, err := s.store.GetUser(ctx, job.PostedBy)
	if err != nil {
		log.WithError(err).Warn("load job poster for notification")
	}
	s.notifier.ApplicationSubmitted(student, admin, job)
}

// SetStatus records the owning admin's decision on a pending application.
func (s *ApplicationService) SetStatus(ctx context.Context, adminID, applicationID string, status models.ApplicationStatus) (*models.Application, error) {
	if !status.Decision() {
		return nil, FieldErrors{"status": "must be accepted or declined"}
	}

	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, upstream(err)
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}

	job, err := s.store.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, upstream(err)
	}
	if job == nil || job.PostedBy != adminID {
		return nil, ErrNotJobOwner
	}

	unlock := s.locks.Lock("status/" + applicationID)
	defer unlock()

	// Re-read under the lock so two decisions cannot both see pending.
	app, err = s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, upstream(err)
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	if app.Status.Terminal() {
		return nil, ErrAlreadyDecided
	}

	updated, err := s.store.UpdateApplicationStatus(ctx, applicationID, status)
	if err != nil {
		return nil, upstream(err)
	}
	if updated == nil {
		return nil, ErrApplicationNotFound
	}
	metrics.StatusChanged(string(status))
	log.WithFields(log.Fields{"application_id": applicationID, "status": status}).Info("application decided")

	student, err := s.store.GetUser(ctx, updated.StudentID)
	if err != nil {
		log.WithError(err).Warn("load student for notification")
	} else {
		s.notifier.StatusChanged(student, job, status)
	}
	return updated, nil
}

// ListForStudent returns the student's applications with their jobs.
func (s *ApplicationService) ListForStudent(ctx context.Context, studentID string) ([]models.ApplicationWithJob, error) {
	apps, err := s.store.ListApplicationsByStudent(ctx, studentID)
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]models.ApplicationWithJob, 0, len(apps))
	for _, app := range apps {
		job, err := s.store.GetJob(ctx, app.JobID)
		if err != nil {
			return nil, upstream(err)
		}
		out = append(out, models.ApplicationWithJob{Application: app, Job: job})
	}
	return out, nil
}

// ListForJob returns a job's applications with public student profiles.
// Only the admin who posted the job may see them.
func (s *ApplicationService) ListForJob(ctx context.Context, adminID, jobID string) ([]models.ApplicationWithStudent, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, upstream(err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.PostedBy != adminID {
		return nil, ErrNotJobOwner
	}

	apps, err := s.store.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]models.ApplicationWithStudent, 0, len(apps))
	for _, app := range apps {
		student, err := s.store.GetUser(ctx, app.StudentID)
		if err != nil {
			return nil, upstream(err)
		}
		entry := models.ApplicationWithStudent{Application: app}
		if student != nil {
			profile := student.Profile()
			entry.Student = &profile
		}
		out = append(out, entry)
	}
	return out, nil
}
