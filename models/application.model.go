package models

import "time"

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusAccepted ApplicationStatus = "accepted"
	StatusDeclined ApplicationStatus = "declined"
)

// Terminal reports whether no further transition is allowed out of s.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Decision reports whether s is a status an admin may set.
func (s ApplicationStatus) Decision() bool {
	return s.Terminal()
}

type Application struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	JobID     string            `gorm:"size:36;not null;uniqueIndex:idx_application_job_student" json:"jobId"`
	StudentID string            `gorm:"size:36;not null;uniqueIndex:idx_application_job_student;index" json:"studentId"`
	Status    ApplicationStatus `gorm:"size:16;not null;default:pending" json:"status"`
	AppliedAt time.Time         `gorm:"index;not null" json:"appliedAt"`
}

// ApplicationWithJob is what a student sees on their dashboard.
type ApplicationWithJob struct {
	Application
	Job *Job `json:"job,omitempty"`
}

// ApplicationWithStudent is what the owning admin sees per job.
type ApplicationWithStudent struct {
	Application
	Student *Profile `json:"student,omitempty"`
}
