// Package session issues, resolves and revokes sign-in sessions and
// password reset tokens.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"investment_portal/internal/utils"

	"github.com/google/uuid"
)

// ErrInvalid is returned when a token does not resolve to a live session.
var ErrInvalid = errors.New("session invalid or expired")

// Session is one signed-in client. It is created at sign-in, carried in the
// request context, and gone after sign-out or expiry.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager ties JWTs to server-side session records.
type Manager struct {
	store    Store
	secret   string
	ttl      time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

// NewManager creates a Manager. ttl bounds sessions, resetTTL bounds
// password reset tokens.
func NewManager(store Store, secret string, ttl, resetTTL time.Duration) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, resetTTL: resetTTL, now: time.Now}
}

func sessionKey(id string) string  { return "session:" + id }
func resetKey(token string) string { return "pwreset:" + token }

// Create stores a new session for the user and returns it with its signed
// token.
func (m *Manager) Create(ctx context.Context, userID uint, role string) (*Session, string, error) {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, "", err
	}
	if err := m.store.Put(ctx, sessionKey(s.ID), b, m.ttl); err != nil {
		return nil, "", fmt.Errorf("store session: %w", err)
	}
	token, err := utils.GenerateJWT(userID, s.ID, s.IssuedAt, s.ExpiresAt, m.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}
	return s, token, nil
}

// Resolve verifies a token and loads its session.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := utils.ParseJWT(token, m.secret)
	if err != nil {
		return nil, ErrInvalid
	}
	b, err := m.store.Get(ctx, sessionKey(claims.ID))
	if errors.Is(err, ErrMissing) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.UserID != claims.UserID || !m.now().Before(s.ExpiresAt) {
		return nil, ErrInvalid
	}
	return &s, nil
}

// Revoke ends a session. Revoking an unknown session is not an error.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	return m.store.Delete(ctx, sessionKey(id))
}

// IssueResetToken creates a one-time password reset token for the user.
func (m *Manager) IssueResetToken(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	b, err := json.Marshal(userID)
	if err != nil {
		return "", err
	}
	if err := m.store.Put(ctx, resetKey(token), b, m.resetTTL); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// ConsumeResetToken returns the user a reset token was issued for and
// invalidates it.
func (m *Manager) ConsumeResetToken(ctx context.Context, token string) (uint, error) {
	b, err := m.store.Take(ctx, resetKey(token))
	if errors.Is(err, ErrMissing) {
		return 0, ErrInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("load reset token: %w", err)
	}
	var userID uint
	if err := json.Unmarshal(b, &userID); err != nil {
		return 0, fmt.Errorf("decode reset token: %w", err)
	}
	return userID, nil
}
