// Package storage is the persistence boundary of the portal. Business code
// only sees the Storage interface; the concrete backend is chosen once at
// startup by Open.
package storage

import (
	"context"
	"errors"
	"fmt"

	"placement/config"
	"placement/database"
	"placement/models"
)

var (
	// ErrUnavailable wraps any backend or network failure.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrDuplicate is returned when a natural key is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// Storage is implemented by every backend. Lookups of absent records return
// (nil, nil); errors are reserved for backend failures.
//
// List methods return records newest first.
type Storage interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)

	CreateOTP(ctx context.Context, otp *models.OTP) error
	GetLatestOTPByEmail(ctx context.Context, email string) (*models.OTP, error)
	DeleteOTP(ctx context.Context, id string) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)
	ListJobsByAdmin(ctx context.Context, adminID string) ([]models.Job, error)

	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	GetApplicationByJobAndStudent(ctx context.Context, jobID, studentID string) (*models.Application, error)
	ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error)
	ListApplicationsByStudent(ctx context.Context, studentID string) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open builds the backend named by cfg.StorageDriver.
func Open(cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "", "memory":
		return NewMemoryStorage(), nil
	case "postgres", "mysql", "sqlite":
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		return NewGormStorage(db), nil
	case "supabase":
		return NewSupabaseStorage(SupabaseConfig{URL: cfg.SupabaseURL, APIKey: cfg.SupabaseKey})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
