// Package session keeps login sessions on the server. The browser only
// holds a signed reference to a session record; identity and role are
// always read back from the record.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"placement/models"
)

var ErrInvalidToken = errors.New("invalid session token")

// Session is the server-side record a cookie points at.
type Session struct {
	ID        string
	UserID    string
	Role      models.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	Now        func() time.Time
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	secret []byte
	ttl    time.Duration
	cookie string
	secure bool
	now    func() time.Time
}

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

func NewManager(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.CookieName == "" {
		opts.CookieName = "placement.sid"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		sessions: make(map[string]*Session),
		secret:   []byte(opts.Secret),
		ttl:      opts.TTL,
		cookie:   opts.CookieName,
		secure:   opts.Secure,
		now:      opts.Now,
	}
}

// Issue creates a session record and returns the signed token naming it.
func (m *Manager) Issue(userID string, role models.Role) (string, *Session, error) {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{SID: s.ID})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	cp := *s
	return signed, &cp, nil
}

// Lookup resolves a token to its live session. Expired records are dropped.
func (m *Manager) Lookup(token string) (*Session, bool) {
	sid, err := m.parse(token)
	if err != nil {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sid]
	if !ok {
		return nil, false
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, sid)
		return nil, false
	}
	cp := *s
	return &cp, true
}

// Revoke deletes the session named by token. Unknown sessions are ignored.
func (m *Manager) Revoke(token string) error {
	sid, err := m.parse(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, sid)
	m.mu.Unlock()
	return nil
}

func (m *Manager) parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.SID == "" {
		return "", ErrInvalidToken
	}
	return claims.SID, nil
}

// Establish starts a fresh session for the user and sets the cookie. Any
// session the request already carried is revoked first.
func (m *Manager) Establish(c *fiber.Ctx, userID string, role models.Role) (*Session, error) {
	if old := c.Cookies(m.cookie); old != "" {
		_ = m.Revoke(old)
	}

	token, s, err := m.Issue(userID, role)
	if err != nil {
		return nil, err
	}

	c.Cookie(&fiber.Cookie{
		Name:     m.cookie,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return s, nil
}

// Resolve returns the session carried by the request, if any.
func (m *Manager) Resolve(c *fiber.Ctx) (*Session, bool) {
	return m.Lookup(c.Cookies(m.cookie))
}

// Destroy ends the request's session and clears the cookie. A request
// without a session is not an error.
func (m *Manager) Destroy(c *fiber.Ctx) error {
	token := c.Cookies(m.cookie)
	c.ClearCookie(m.cookie)
	if token == "" {
		return nil
	}
	if err := m.Revoke(token); err != nil && !errors.Is(err, ErrInvalidToken) {
		return err
	}
	return nil
}

// Sweep drops every expired session and reports how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len is the number of stored sessions, expired or not.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
