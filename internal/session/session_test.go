package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store, "secret", time.Hour, 10*time.Minute), store
}

func TestCreateResolveRevoke(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	s, token, err := mgr.Create(ctx, 7, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, s.IssuedAt.Add(time.Hour), s.ExpiresAt)

	got, err := mgr.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, "admin", got.Role)

	require.NoError(t, mgr.Revoke(ctx, s.ID))
	_, err = mgr.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	a, tokenA, err := mgr.Create(ctx, 1, "user")
	require.NoError(t, err)
	_, tokenB, err := mgr.Create(ctx, 1, "user")
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(ctx, a.ID))
	_, err = mgr.Resolve(ctx, tokenA)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = mgr.Resolve(ctx, tokenB)
	assert.NoError(t, err, "signing out one client leaves the others alone")
}

func TestResolveRejectsForeignSecretAndExpiry(t *testing.T) {
	ctx := context.Background()
	mgr, store := newTestManager()
	_, token, err := mgr.Create(ctx, 3, "user")
	require.NoError(t, err)

	other := NewManager(store, "different", time.Hour, time.Minute)
	_, err = other.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalid)

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = mgr.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestResetTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	token, err := mgr.IssueResetToken(ctx, 11)
	require.NoError(t, err)

	userID, err := mgr.ConsumeResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(11), userID)

	_, err = mgr.ConsumeResetToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalid)
}
