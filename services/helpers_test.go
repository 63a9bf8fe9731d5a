package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"placement/models"
	"placement/storage"
	"placement/utils"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []utils.Message
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, msg utils.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) Sent() []utils.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]utils.Message(nil), m.sent...)
}

func (m *recordingMailer) SentTo(addr string) []utils.Message {
	var out []utils.Message
	for _, msg := range m.Sent() {
		if msg.To == addr {
			out = append(out, msg)
		}
	}
	return out
}

// codes hands out the given codes in order.
func codes(values ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		v := values[i%len(values)]
		i++
		return v, nil
	}
}

// brokenStorage fails every job lookup.
type brokenStorage struct {
	storage.Storage
}

func (brokenStorage) GetJob(context.Context, string) (*models.Job, error) {
	return nil, storage.ErrUnavailable
}

func (brokenStorage) CreateOTP(context.Context, *models.OTP) error {
	return storage.ErrUnavailable
}

func mustUser(store storage.Storage, email, name string, role models.Role) *models.User {
	u := &models.User{Email: email, Name: name, Role: role, IsVerified: true}
	if err := store.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}
