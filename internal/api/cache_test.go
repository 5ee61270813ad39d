package api

import (
	"net/http"
	"testing"

	"investment_portal/internal/domain"
	"investment_portal/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func findUser(t *testing.T, body map[string]any, username string) map[string]any {
	t.Helper()
	for _, u := range body["users"].([]any) {
		if m := u.(map[string]any); m["username"] == username {
			return m
		}
	}
	t.Fatalf("user %s not listed", username)
	return nil
}

func TestAdminStatsCacheInvalidatedBySignUp(t *testing.T) {
	mr, rdb := newRedis(t)
	h := newHarnessWithRedis(t, rdb)
	testutil.CreateProfile(t, h.conn, "root", domain.RoleAdmin, 0)
	adminToken := h.login("root@example.com", "password123")

	w := h.do(http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, float64(1), body["stats"].(map[string]any)["total_users"])
	assert.True(t, mr.Exists("admin:stats"))

	body = decodeBody(t, h.do(http.MethodGet, "/admin/stats", adminToken, nil))
	assert.Equal(t, true, body["cached"])

	w = h.do(http.MethodPost, "/auth/register", "", gin.H{
		"username": "carol", "email": "carol@example.com", "phone": "+8801711111111",
		"country": "BD", "password": "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.False(t, mr.Exists("admin:stats"), "sign-up flushes cached listings")

	body = decodeBody(t, h.do(http.MethodGet, "/admin/stats", adminToken, nil))
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, float64(2), body["stats"].(map[string]any)["total_users"])
}

func TestAdminUsersCacheInvalidatedByPinChange(t *testing.T) {
	_, rdb := newRedis(t)
	h := newHarnessWithRedis(t, rdb)
	testutil.CreateProfile(t, h.conn, "root", domain.RoleAdmin, 0)
	user := testutil.CreateProfile(t, h.conn, "alice", domain.RoleUser, 0)
	require.NoError(t, h.conn.Model(user).Update("withdraw_pin", "").Error)
	adminToken := h.login("root@example.com", "password123")
	userToken := h.login("alice@example.com", "password123")

	body := decodeBody(t, h.do(http.MethodGet, "/admin/users", adminToken, nil))
	assert.Equal(t, false, findUser(t, body, "alice")["has_withdraw_pin"])
	body = decodeBody(t, h.do(http.MethodGet, "/admin/users", adminToken, nil))
	assert.Equal(t, true, body["cached"])

	w := h.do(http.MethodPut, "/account/withdraw-pin", userToken, gin.H{"pin": "2468"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body = decodeBody(t, h.do(http.MethodGet, "/admin/users", adminToken, nil))
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, true, findUser(t, body, "alice")["has_withdraw_pin"])
}

func TestSessionsLiveInRedis(t *testing.T) {
	mr, rdb := newRedis(t)
	h := newHarnessWithRedis(t, rdb)
	testutil.CreateProfile(t, h.conn, "alice", domain.RoleUser, 0)
	token := h.login("alice@example.com", "password123")
	assert.Len(t, mr.Keys(), 1, "one session record")

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/account", token, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/logout", token, nil).Code)
	assert.Empty(t, mr.Keys())
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/account", token, nil).Code)
}
