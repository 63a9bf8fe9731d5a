package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"placement/models"
)

// MemoryStorage keeps everything in process memory. Data is lost on restart
// and is not shared between processes.
type MemoryStorage struct {
	mu           sync.RWMutex
	seq          uint64
	users        map[string]*models.User
	otps         map[string]*memOTP
	jobs         map[string]*memJob
	applications map[string]*memApplication
}

// seq records insertion order so records created within the same clock
// tick still sort deterministically.
type memOTP struct {
	models.OTP
	seq uint64
}

type memJob struct {
	models.Job
	seq uint64
}

type memApplication struct {
	models.Application
	seq uint64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:        make(map[string]*models.User),
		otps:         make(map[string]*memOTP),
		jobs:         make(map[string]*memJob),
		applications: make(map[string]*memApplication),
	}
}

func (m *MemoryStorage) next() uint64 {
	m.seq++
	return m.seq
}

// Users

func (m *MemoryStorage) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStorage) UpdateUser(_ context.Context, id string, update models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	if update.IsVerified != nil {
		u.IsVerified = *update.IsVerified
	}
	cp := *u
	return &cp, nil
}

// OTP

func (m *MemoryStorage) CreateOTP(_ context.Context, otp *models.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	m.otps[otp.ID] = &memOTP{OTP: *otp, seq: m.next()}
	return nil
}

func (m *MemoryStorage) GetLatestOTPByEmail(_ context.Context, email string) (*models.OTP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *memOTP
	for _, o := range m.otps {
		if o.Email != email {
			continue
		}
		if latest == nil || newer(o.CreatedAt, o.seq, latest.CreatedAt, latest.seq) {
			latest = o
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := latest.OTP
	return &cp, nil
}

func (m *MemoryStorage) DeleteOTP(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, id)
	return nil
}

// Jobs

func (m *MemoryStorage) CreateJob(_ context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	m.jobs[job.ID] = &memJob{Job: *job, seq: m.next()}
	return nil
}

func (m *MemoryStorage) GetJob(_ context.Context, id string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := j.Job
	return &cp, nil
}

func (m *MemoryStorage) ListJobs(_ context.Context) ([]models.Job, error) {
	return m.filterJobs(func(*models.Job) bool { return true }), nil
}

func (m *MemoryStorage) ListJobsByAdmin(_ context.Context, adminID string) ([]models.Job, error) {
	return m.filterJobs(func(j *models.Job) bool { return j.PostedBy == adminID }), nil
}

func (m *MemoryStorage) filterJobs(keep func(*models.Job) bool) []models.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]*memJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		if keep(&j.Job) {
			matched = append(matched, j)
		}
	}
	sort.Slice(matched, func(a, b int) bool {
		return newer(matched[a].CreatedAt, matched[a].seq, matched[b].CreatedAt, matched[b].seq)
	})
	out := make([]models.Job, len(matched))
	for i, j := range matched {
		out[i] = j.Job
	}
	return out
}

// Applications

func (m *MemoryStorage) CreateApplication(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.applications {
		if a.JobID == app.JobID && a.StudentID == app.StudentID {
			return ErrDuplicate
		}
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = models.StatusPending
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	m.applications[app.ID] = &memApplication{Application: *app, seq: m.next()}
	return nil
}

func (m *MemoryStorage) GetApplication(_ context.Context, id string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.applications[id]
	if !ok {
		return nil, nil
	}
	cp := a.Application
	return &cp, nil
}

func (m *MemoryStorage) GetApplicationByJobAndStudent(_ context.Context, jobID, studentID string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.applications {
		if a.JobID == jobID && a.StudentID == studentID {
			cp := a.Application
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) ListApplicationsByJob(_ context.Context, jobID string) ([]models.Application, error) {
	return m.filterApplications(func(a *models.Application) bool { return a.JobID == jobID }), nil
}

func (m *MemoryStorage) ListApplicationsByStudent(_ context.Context, studentID string) ([]models.Application, error) {
	return m.filterApplications(func(a *models.Application) bool { return a.StudentID == studentID }), nil
}

func (m *MemoryStorage) filterApplications(keep func(*models.Application) bool) []models.Application {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]*memApplication, 0)
	for _, a := range m.applications {
		if keep(&a.Application) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(x, y int) bool {
		return newer(matched[x].AppliedAt, matched[x].seq, matched[y].AppliedAt, matched[y].seq)
	})
	out := make([]models.Application, len(matched))
	for i, a := range matched {
		out[i] = a.Application
	}
	return out
}

func (m *MemoryStorage) UpdateApplicationStatus(_ context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return nil, nil
	}
	a.Status = status
	cp := a.Application
	return &cp, nil
}

func (m *MemoryStorage) Ping(context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }

func newer(t1 time.Time, seq1 uint64, t2 time.Time, seq2 uint64) bool {
	if !t1.Equal(t2) {
		return t1.After(t2)
	}
	return seq1 > seq2
}
