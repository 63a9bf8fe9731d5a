package services

import "errors"

// Error categories. Every error a service returns matches exactly one of
// these with errors.Is; the HTTP layer maps categories to status codes.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream unavailable")
)

// domainError is a specific failure that also matches its category.
type domainError struct {
	msg      string
	category error
}

func (e *domainError) Error() string { return e.msg }

func (e *domainError) Is(target error) bool { return target == e.category }

func newError(category error, msg string) error {
	return &domainError{msg: msg, category: category}
}

var (
	ErrNoCodeIssued        = newError(ErrValidation, "No OTP found. Please request a new one.")
	ErrCodeMismatch        = newError(ErrValidation, "Invalid OTP")
	ErrCodeExpired         = newError(ErrValidation, "OTP has expired")
	ErrUserNotFound        = newError(ErrNotFound, "User not found")
	ErrJobNotFound         = newError(ErrNotFound, "Job not found")
	ErrApplicationNotFound = newError(ErrNotFound, "Application not found")
	ErrAlreadyApplied      = newError(ErrConflict, "You have already applied to this job")
	ErrAlreadyDecided      = newError(ErrConflict, "Application has already been decided")
	ErrDeadlinePassed      = newError(ErrConflict, "The application deadline for this job has passed")
	ErrNotJobOwner         = newError(ErrForbidden, "You can only manage applications for your own jobs")
)

// FieldErrors carries per-field validation messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string { return "validation failed" }

func (f FieldErrors) Is(target error) bool { return target == ErrValidation }

// upstream wraps a storage failure so it matches ErrUpstream while keeping
// the cause for logs.
func upstream(err error) error {
	return &upstreamError{cause: err}
}

type upstreamError struct{ cause error }

func (e *upstreamError) Error() string { return "upstream unavailable: " + e.cause.Error() }

func (e *upstreamError) Is(target error) bool { return target == ErrUpstream }

func (e *upstreamError) Unwrap() error { return e.cause }
