package services

import (
	"context"
	"strings"
	"time"

	"github.com/jinzhu/now"
	log "github.com/sirupsen/logrus"

	"placement/models"
	"placement/storage"
)

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDeadline accepts an RFC 3339 timestamp, an HTML datetime-local
// value or a plain date. Values without a zone are UTC.
func ParseDeadline(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DeadlinePassed reports whether at falls after the last instant of the
// deadline's UTC calendar day, whatever zone the backend handed back.
func DeadlinePassed(deadline, at time.Time) bool {
	return at.After(now.With(deadline.UTC()).EndOfDay())
}

type JobInput struct {
	Title        string
	Company      string
	Location     string
	Description  string
	Requirements string
	Deadline     string
}

type JobService struct {
	store storage.Storage
	now   func() time.Time
}

func NewJobService(store storage.Storage, clock func() time.Time) *JobService {
	if clock == nil {
		clock = time.Now
	}
	return &JobService{store: store, now: clock}
}

// Create posts a job owned by adminID.
func (s *JobService) Create(ctx context.Context, adminID string, in JobInput) (*models.Job, error) {
	errs := FieldErrors{}
	required := map[string]string{
		"title":        in.Title,
		"company":      in.Company,
		"location":     in.Location,
		"description":  in.Description,
		"requirements": in.Requirements,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			errs[field] = "is required"
		}
	}
	deadline, ok := ParseDeadline(in.Deadline)
	if !ok {
		errs["deadline"] = "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	job := &models.Job{
		Title:        strings.TrimSpace(in.Title),
		Company:      strings.TrimSpace(in.Company),
		Location:     strings.TrimSpace(in.Location),
		Description:  in.Description,
		Requirements: in.Requirements,
		Deadline:     deadline,
		PostedBy:     adminID,
		CreatedAt:    s.now(),
	}
	if len(job.RequirementTags()) == 0 {
		return nil, FieldErrors{"requirements": "must list at least one requirement"}
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, upstream(err)
	}
	log.WithFields(log.Fields{"job_id": job.ID, "admin_id": adminID}).Info("job posted")
	return job, nil
}

func (s *JobService) List(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, upstream(err)
	}
	return nonNil(jobs), nil
}

func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// ListMine returns the jobs posted by adminID, newest first.
func (s *JobService) ListMine(ctx context.Context, adminID string) ([]models.Job, error) {
	jobs, err := s.store.ListJobsByAdmin(ctx, adminID)
	if err != nil {
		return nil, upstream(err)
	}
	return nonNil(jobs), nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
