package session

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement/models"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager() (*Manager, *clock) {
	clk := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewManager(Options{Secret: "test-secret", TTL: time.Hour, Now: clk.Now}), clk
}

func TestIssueAndLookup(t *testing.T) {
	m, _ := newTestManager()

	token, s, err := m.Issue("user-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	got, ok := m.Lookup(token)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestLookupRejectsForgedTokens(t *testing.T) {
	m, _ := newTestManager()
	_, s, err := m.Issue("user-1", models.RoleStudent)
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{SID: s.ID}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := m.Lookup(token)
			assert.False(t, ok)
		})
	}
}

func TestExpiryAndSweep(t *testing.T) {
	m, clk := newTestManager()

	expiring, _, err := m.Issue("user-1", models.RoleStudent)
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)
	fresh, _, err := m.Issue("user-2", models.RoleStudent)
	require.NoError(t, err)

	clk.Advance(30 * time.Minute)
	_, ok := m.Lookup(expiring)
	assert.False(t, ok, "session must expire after its TTL")
	_, ok = m.Lookup(fresh)
	assert.True(t, ok)

	_, _, err = m.Issue("user-3", models.RoleStudent)
	require.NoError(t, err)
	clk.Advance(45 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestRevoke(t *testing.T) {
	m, _ := newTestManager()
	token, _, err := m.Issue("user-1", models.RoleStudent)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(token))
	_, ok := m.Lookup(token)
	assert.False(t, ok)

	assert.NoError(t, m.Revoke(token), "revoking twice is not an error")
}

func TestCookieRoundTrip(t *testing.T) {
	m, _ := newTestManager()
	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		_, err := m.Establish(c, "user-1", models.RoleStudent)
		return err
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		s, ok := m.Resolve(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(s.UserID)
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		return m.Destroy(c)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "placement.sid", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, m.Len())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "logout without a session succeeds")
}

func TestEstablishReplacesExistingSession(t *testing.T) {
	m, _ := newTestManager()
	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		_, err := m.Establish(c, "user-1", models.RoleStudent)
		return err
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	first := resp.Cookies()[0]

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(first)
	_, err = app.Test(req)
	require.NoError(t, err)

	_, ok := m.Lookup(first.Value)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}
