package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"placement/models"
)

// GormStorage persists records in a SQL database (postgres, mysql or sqlite).
// Uniqueness of users.email and applications(job_id, student_id) is enforced
// by the schema.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// first loads a single record; a missing row is reported as (nil, nil).
func first[T any](ctx context.Context, db *gorm.DB, op string, query string, args ...any) (*T, error) {
	var out T
	err := db.WithContext(ctx).Where(query, args...).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	return &out, nil
}

func create(ctx context.Context, db *gorm.DB, op string, value any) error {
	err := db.WithContext(ctx).Create(value).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return unavailable(op, err)
	}
	return nil
}

// Users

func (s *GormStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return first[models.User](ctx, s.db, "get user", "id = ?", id)
}

func (s *GormStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](ctx, s.db, "get user by email", "email = ?", email)
}

func (s *GormStorage) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return create(ctx, s.db, "create user", user)
}

func (s *GormStorage) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}

	changes := map[string]any{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.Role != nil {
		changes["role"] = *update.Role
	}
	if update.IsVerified != nil {
		changes["is_verified"] = *update.IsVerified
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		return nil, unavailable("update user", err)
	}
	return s.GetUser(ctx, id)
}

// OTP

func (s *GormStorage) CreateOTP(ctx context.Context, otp *models.OTP) error {
	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	return create(ctx, s.db, "create otp", otp)
}

func (s *GormStorage) GetLatestOTPByEmail(ctx context.Context, email string) (*models.OTP, error) {
	var otps []models.OTP
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Limit(1).
		Find(&otps).Error
	if err != nil {
		return nil, unavailable("get latest otp", err)
	}
	if len(otps) == 0 {
		return nil, nil
	}
	return &otps[0], nil
}

func (s *GormStorage) DeleteOTP(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OTP{}).Error; err != nil {
		return unavailable("delete otp", err)
	}
	return nil
}

// Jobs

func (s *GormStorage) CreateJob(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	return create(ctx, s.db, "create job", job)
}

func (s *GormStorage) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return first[models.Job](ctx, s.db, "get job", "id = ?", id)
}

func (s *GormStorage) ListJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, unavailable("list jobs", err)
	}
	return jobs, nil
}

func (s *GormStorage) ListJobsByAdmin(ctx context.Context, adminID string) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("posted_by = ?", adminID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, unavailable("list jobs by admin", err)
	}
	return jobs, nil
}

// Applications

func (s *GormStorage) CreateApplication(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = models.StatusPending
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	return create(ctx, s.db, "create application", app)
}

func (s *GormStorage) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	return first[models.Application](ctx, s.db, "get application", "id = ?", id)
}

func (s *GormStorage) GetApplicationByJobAndStudent(ctx context.Context, jobID, studentID string) (*models.Application, error) {
	return first[models.Application](ctx, s.db, "get application by job and student",
		"job_id = ? AND student_id = ?", jobID, studentID)
}

func (s *GormStorage) ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error) {
	return s.listApplications(ctx, "list applications by job", "job_id = ?", jobID)
}

func (s *GormStorage) ListApplicationsByStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	return s.listApplications(ctx, "list applications by student", "student_id = ?", studentID)
}

func (s *GormStorage) listApplications(ctx context.Context, op, query string, args ...any) ([]models.Application, error) {
	var apps []models.Application
	err := s.db.WithContext(ctx).
		Where(query, args...).
		Order("applied_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, unavailable(op, err)
	}
	return apps, nil
}

func (s *GormStorage) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil || app == nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(app).Update("status", status).Error; err != nil {
		return nil, unavailable("update application status", err)
	}
	app.Status = status
	return app, nil
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
