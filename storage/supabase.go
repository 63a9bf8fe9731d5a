package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"placement/models"
)

const (
	tableUsers        = "users"
	tableOTPCodes     = "otp_codes"
	tableJobs         = "jobs"
	tableApplications = "applications"

	pgUniqueViolation = "23505"
)

// SupabaseConfig holds the PostgREST endpoint and key.
type SupabaseConfig struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// SupabaseStorage talks to a Supabase project through its PostgREST API.
// Column names follow the snake_case schema of the hosted tables.
type SupabaseStorage struct {
	client *resty.Client
}

func NewSupabaseStorage(cfg SupabaseConfig) (*SupabaseStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("SUPABASE_KEY is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = 2
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")+"/rest/v1").
		SetHeader("apikey", cfg.APIKey).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		AddRetryCondition(retryReads)

	return &SupabaseStorage{client: client}, nil
}

// retryReads retries only GETs; writes are not idempotent.
func retryReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || resp.StatusCode() >= http.StatusInternalServerError
}

type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// check converts a PostgREST response into the storage error vocabulary.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return unavailable(op, err)
	}
	if !resp.IsError() {
		return nil
	}
	var pgErr postgrestError
	_ = json.Unmarshal(resp.Body(), &pgErr)
	if resp.StatusCode() == http.StatusConflict || pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	msg := pgErr.Message
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	return unavailable(op, fmt.Errorf("supabase API error %d: %s", resp.StatusCode(), msg))
}

func (s *SupabaseStorage) selectRows(ctx context.Context, op, table string, params map[string]string, out any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParams(params).
		SetResult(out).
		Get("/" + table)
	return check(op, resp, err)
}

func (s *SupabaseStorage) insertRow(ctx context.Context, op, table string, row any, out any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody([]any{row}).
		SetResult(out).
		Post("/" + table)
	return check(op, resp, err)
}

func (s *SupabaseStorage) updateRows(ctx context.Context, op, table string, params map[string]string, body any, out any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(params).
		SetBody(body).
		SetResult(out).
		Patch("/" + table)
	return check(op, resp, err)
}

func eq(value string) string {
	return "eq." + value
}

// Users

func (s *SupabaseStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "get user", map[string]string{"id": eq(id), "limit": "1"})
}

func (s *SupabaseStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "get user by email", map[string]string{"email": eq(email), "limit": "1"})
}

func (s *SupabaseStorage) findUser(ctx context.Context, op string, params map[string]string) (*models.User, error) {
	var rows []userRow
	if err := s.selectRows(ctx, op, tableUsers, params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	u := rows[0].model()
	return &u, nil
}

func (s *SupabaseStorage) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	var rows []userRow
	if err := s.insertRow(ctx, "create user", tableUsers, newUserRow(user), &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		*user = rows[0].model()
	}
	return nil
}

func (s *SupabaseStorage) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	if update.Name == nil && update.Role == nil && update.IsVerified == nil {
		return s.GetUser(ctx, id)
	}
	var rows []userRow
	if err := s.updateRows(ctx, "update user", tableUsers, map[string]string{"id": eq(id)}, update, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	u := rows[0].model()
	return &u, nil
}

// OTP

func (s *SupabaseStorage) CreateOTP(ctx context.Context, otp *models.OTP) error {
	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	var rows []otpRow
	if err := s.insertRow(ctx, "create otp", tableOTPCodes, newOTPRow(otp), &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		*otp = rows[0].model()
	}
	return nil
}

func (s *SupabaseStorage) GetLatestOTPByEmail(ctx context.Context, email string) (*models.OTP, error) {
	var rows []otpRow
	params := map[string]string{
		"email": eq(email),
		"order": "created_at.desc",
		"limit": "1",
	}
	if err := s.selectRows(ctx, "get latest otp", tableOTPCodes, params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	o := rows[0].model()
	return &o, nil
}

func (s *SupabaseStorage) DeleteOTP(ctx context.Context, id string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("id", eq(id)).
		Delete("/" + tableOTPCodes)
	return check("delete otp", resp, err)
}

// Jobs

func (s *SupabaseStorage) CreateJob(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	var rows []jobRow
	if err := s.insertRow(ctx, "create job", tableJobs, newJobRow(job), &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		*job = rows[0].model()
	}
	return nil
}

func (s *SupabaseStorage) GetJob(ctx context.Context, id string) (*models.Job, error) {
	jobs, err := s.listJobs(ctx, "get job", map[string]string{"id": eq(id), "limit": "1"})
	if err != nil || len(jobs) == 0 {
		return nil, err
	}
	return &jobs[0], nil
}

func (s *SupabaseStorage) ListJobs(ctx context.Context) ([]models.Job, error) {
	return s.listJobs(ctx, "list jobs", map[string]string{"order": "created_at.desc"})
}

func (s *SupabaseStorage) ListJobsByAdmin(ctx context.Context, adminID string) ([]models.Job, error) {
	return s.listJobs(ctx, "list jobs by admin", map[string]string{
		"posted_by": eq(adminID),
		"order":     "created_at.desc",
	})
}

func (s *SupabaseStorage) listJobs(ctx context.Context, op string, params map[string]string) ([]models.Job, error) {
	var rows []jobRow
	if err := s.selectRows(ctx, op, tableJobs, params, &rows); err != nil {
		return nil, err
	}
	jobs := make([]models.Job, len(rows))
	for i, r := range rows {
		jobs[i] = r.model()
	}
	return jobs, nil
}

// Applications

func (s *SupabaseStorage) CreateApplication(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = models.StatusPending
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	var rows []applicationRow
	if err := s.insertRow(ctx, "create application", tableApplications, newApplicationRow(app), &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		*app = rows[0].model()
	}
	return nil
}

func (s *SupabaseStorage) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	return s.findApplication(ctx, "get application", map[string]string{"id": eq(id), "limit": "1"})
}

func (s *SupabaseStorage) GetApplicationByJobAndStudent(ctx context.Context, jobID, studentID string) (*models.Application, error) {
	return s.findApplication(ctx, "get application by job and student", map[string]string{
		"job_id":     eq(jobID),
		"student_id": eq(studentID),
		"limit":      "1",
	})
}

func (s *SupabaseStorage) findApplication(ctx context.Context, op string, params map[string]string) (*models.Application, error) {
	apps, err := s.listApplications(ctx, op, params)
	if err != nil || len(apps) == 0 {
		return nil, err
	}
	return &apps[0], nil
}

func (s *SupabaseStorage) ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error) {
	return s.listApplications(ctx, "list applications by job", map[string]string{
		"job_id": eq(jobID),
		"order":  "applied_at.desc",
	})
}

func (s *SupabaseStorage) ListApplicationsByStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	return s.listApplications(ctx, "list applications by student", map[string]string{
		"student_id": eq(studentID),
		"order":      "applied_at.desc",
	})
}

func (s *SupabaseStorage) listApplications(ctx context.Context, op string, params map[string]string) ([]models.Application, error) {
	var rows []applicationRow
	if err := s.selectRows(ctx, op, tableApplications, params, &rows); err != nil {
		return nil, err
	}
	apps := make([]models.Application, len(rows))
	for i, r := range rows {
		apps[i] = r.model()
	}
	return apps, nil
}

func (s *SupabaseStorage) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	var rows []applicationRow
	body := map[string]string{"status": string(status)}
	if err := s.updateRows(ctx, "update application status", tableApplications, map[string]string{"id": eq(id)}, body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	a := rows[0].model()
	return &a, nil
}

func (s *SupabaseStorage) Ping(ctx context.Context) error {
	var rows []json.RawMessage
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"select": "id", "limit": "1"}).
		SetResult(&rows).
		Get("/" + tableJobs)
	return check("ping", resp, err)
}

func (s *SupabaseStorage) Close() error { return nil }
