package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"placement/models"
)

// pgTime accepts the timestamp shapes PostgREST emits for both timestamptz
// and timestamp columns. Values without a zone are taken as UTC.
type pgTime time.Time

var pgTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parsePgTime(s string) (time.Time, error) {
	for _, layout := range pgTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (t pgTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339Nano))
}

func (t *pgTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = pgTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parsePgTime(s)
	if err != nil {
		return err
	}
	*t = pgTime(parsed)
	return nil
}

// flexBool reads booleans stored either as bool or as "true"/"false" text.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.ToLower(string(data)), `"`) {
	case "true", "t", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

type userRow struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	IsVerified flexBool `json:"is_verified"`
}

func newUserRow(u *models.User) userRow {
	return userRow{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role), IsVerified: flexBool(u.IsVerified)}
}

func (r userRow) model() models.User {
	return models.User{
		ID:         r.ID,
		Email:      r.Email,
		Name:       r.Name,
		Role:       models.Role(r.Role),
		IsVerified: bool(r.IsVerified),
	}
}

type otpRow struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	ExpiresAt pgTime `json:"expires_at"`
	CreatedAt pgTime `json:"created_at"`
}

func newOTPRow(o *models.OTP) otpRow {
	return otpRow{
		ID:        o.ID,
		Email:     o.Email,
		Code:      o.Code,
		ExpiresAt: pgTime(o.ExpiresAt),
		CreatedAt: pgTime(o.CreatedAt),
	}
}

func (r otpRow) model() models.OTP {
	return models.OTP{
		ID:        r.ID,
		Email:     r.Email,
		Code:      r.Code,
		ExpiresAt: time.Time(r.ExpiresAt),
		CreatedAt: time.Time(r.CreatedAt),
	}
}

type jobRow struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Deadline     pgTime `json:"deadline"`
	PostedBy     string `json:"posted_by"`
	CreatedAt    pgTime `json:"created_at"`
}

func newJobRow(j *models.Job) jobRow {
	return jobRow{
		ID:           j.ID,
		Title:        j.Title,
		Company:      j.Company,
		Location:     j.Location,
		Description:  j.Description,
		Requirements: j.Requirements,
		Deadline:     pgTime(j.Deadline),
		PostedBy:     j.PostedBy,
		CreatedAt:    pgTime(j.CreatedAt),
	}
}

func (r jobRow) model() models.Job {
	return models.Job{
		ID:           r.ID,
		Title:        r.Title,
		Company:      r.Company,
		Location:     r.Location,
		Description:  r.Description,
		Requirements: r.Requirements,
		Deadline:     time.Time(r.Deadline),
		PostedBy:     r.PostedBy,
		CreatedAt:    time.Time(r.CreatedAt),
	}
}

type applicationRow struct {
	ID        string `json:"id"`
	JobID     string `json:"job_id"`
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	AppliedAt pgTime `json:"applied_at"`
}

func newApplicationRow(a *models.Application) applicationRow {
	return applicationRow{
		ID:        a.ID,
		JobID:     a.JobID,
		StudentID: a.StudentID,
		Status:    string(a.Status),
		AppliedAt: pgTime(a.AppliedAt),
	}
}

func (r applicationRow) model() models.Application {
	return models.Application{
		ID:        r.ID,
		JobID:     r.JobID,
		StudentID: r.StudentID,
		Status:    models.ApplicationStatus(r.Status),
		AppliedAt: time.Time(r.AppliedAt),
	}
}
