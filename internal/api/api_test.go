package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"investment_portal/internal/domain"
	"investment_portal/internal/service"
	"investment_portal/internal/session"
	"investment_portal/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	service.HashCost = bcrypt.MinCost
}

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[email] = token
	return nil
}

type harness struct {
	t      *testing.T
	conn   *gorm.DB
	router *gin.Engine
	mailer *captureMailer
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithRedis(t, nil)
}

// newHarnessWithRedis keeps sessions and listing caches in rdb when it is set.
func newHarnessWithRedis(t *testing.T, rdb *redis.Client) *harness {
	t.Helper()
	conn := testutil.NewDB(t)
	mailer := &captureMailer{tokens: map[string]string{}}
	var store session.Store = session.NewMemoryStore()
	if rdb != nil {
		store = session.NewRedisStore(rdb)
	}
	r := NewRouter(Deps{
		Service:   service.New(conn),
		Sessions:  session.NewManager(store, "test-secret", time.Hour, time.Minute),
		Redis:     rdb,
		Mailer:    mailer,
		UploadDir: t.TempDir(),
	})
	return &harness{t: t, conn: conn, router: r, mailer: mailer}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (h *harness) uploadDeposit(token string, fields map[string]string, filename string, size int) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("screenshot", filename)
		require.NoError(h.t, err)
		_, err = fw.Write(bytes.Repeat([]byte{0x89}, size))
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/account/deposits", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func assertBalance(t *testing.T, conn *gorm.DB, userID uint, want string) {
	t.Helper()
	got := testutil.Balance(t, conn, userID)
	assert.True(t, decimal.RequireFromString(want).Equal(got), "balance: want %s, got %s", want, got)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/auth/register", "", gin.H{
		"username": "carol", "email": "carol@example.com", "phone": "+8801711111111",
		"country": "BD", "password": "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "s3cretpass")

	w = h.do(http.MethodPost, "/auth/register", "", gin.H{
		"username": "x", "email": "x@example.com", "phone": "+8801711111111", "country": "BD", "password": "s3cretpass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username", decodeBody(t, w)["field"])

	w = h.do(http.MethodPost, "/auth/login", "", gin.H{"email": "carol@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := h.login("carol@example.com", "s3cretpass")
	w = h.do(http.MethodGet, "/account", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "carol", body["username"])
	assert.Equal(t, false, body["has_withdraw_pin"])
	assert.NotContains(t, body, "password")
}

func TestBlockedUserCannotSignIn(t *testing.T) {
	h := newHarness(t)
	user := testutil.CreateProfile(t, h.conn, "alice", domain.RoleUser, 0)
	require.NoError(t, h.conn.Model(user).Update("status", domain.StatusBlocked).Error)

	w := h.do(http.MethodPost, "/auth/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t)
	testutil.CreateProfile(t, h.conn, "alice", domain.RoleUser, 0)
	token := h.login("alice@example.com", "password123")

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/account", token, nil).Code)
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t)
	testutil.CreateProfile(t, h.conn, "alice", domain.RoleUser, 0)

	w := h.do(http.MethodPost, "/auth/password-reset", "", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, w.Code, "unknown emails look the same")

	w = h.do(http.MethodPost, "/auth/password-reset", "", gin.H{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	token := h.mailer.tokens["alice@example.com"]
	require.NotEmpty(t, token)

	w = h.do(http.MethodPost, "/auth/password-reset/confirm", "", gin.H{"token": token, "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/auth/password-reset/confirm", "", gin.H{"token": token, "password": "fresh-password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodPost, "/auth/password-reset/confirm", "", gin.H{"token": token, "password": "another-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "tokens are single use")

	h.login("alice@example.com", "fresh-password")
}

func TestDepositReviewFlow(t *testing.T) {
	h := newHarness(t)
	testutil.CreateProfile(t, h.conn, "root", domain.RoleAdmin, 0)
	user := testutil.CreateProfile(t, h.conn, "alice", domain.RoleUser, 0)
	userToken := h.login("alice@example.com", "password123")
	adminToken := h.login("root@example.com", "password123")

	fields := map[string]string{"amount": "50", "payment_method": "USDT", "transaction_id": "TX123"}
	w := h.uploadDeposit(userToken, fields, "proof.txt", 10)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unsupported extension")
	w = h.uploadDeposit(userToken, fields, "", 0)
	assert.Equal(t, http.StatusBadRequest, w.Code, "screenshot required")
	w = h.uploadDeposit(userToken, fields, "proof.png", maxScreenshotBytes+1)
	assert.Equal(t, http.StatusBadRequest, w.Code, "screenshot too large")

	w = h.uploadDeposit(userToken, fields, "proof.PNG", 128)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dep := decodeBody(t, w)["deposit"].(map[string]any)
	id := strconv.Itoa(int(dep["id"].(float64)))
	assert.Equal(t, domain.RequestPending, dep["status"])

	shot := httptest.NewRecorder()
	h.router.ServeHTTP(shot, httptest.NewRequest(http.MethodGet, dep["screenshot_url"].(string), nil))
	assert.Equal(t, http.StatusOK, shot.Code, "screenshot is served")

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/admin/deposits/"+id+"/approve", userToken, nil).Code)

	w = h.do(http.MethodGet, "/admin/deposits?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])

	w = h.do(http.MethodPost, "/admin/deposits/"+id+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodPost, "/admin/deposits/"+id+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = h.do(http.MethodPost, "/admin/deposits/"+id+"/reject", adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = h.do(http.MethodPost, "/admin/deposits/9999/approve", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assertBalance(t, h.conn, user.ID, "50")

	w = h.do(http.MethodGet, "/account/transactions", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	txs := decodeBody(t, w)["transactions"].([]any)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxCompleted, txs[0].(map[string]any)["status"])
}

func TestWithdrawalRejectionRefunds(t *testing.T) {
	h := newHarness(t)
	testutil.CreateProfile(t, h.conn, "root", domain.RoleAdmin, 0)
	user := testutil.CreateProfile(t, h.conn, "alice", domain.RoleUser, 50)
	userToken := h.login("alice@example.com", "password123")
	adminToken := h.login("root@example.com", "password123")

	req := gin.H{"amount": "20", "payment_method": "bKash", "wallet_address": "01711111111", "pin": "0000"}
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/account/withdrawals", userToken, req).Code, "wrong pin")

	req["pin"] = "1234"
	w := h.do(http.MethodPost, "/account/withdrawals", userToken, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	wd := decodeBody(t, w)["withdrawal"].(map[string]any)
	id := strconv.Itoa(int(wd["id"].(float64)))
	assertBalance(t, h.conn, user.ID, "30")

	req["amount"] = "100"
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/account/withdrawals", userToken, req).Code, "insufficient funds")

	w = h.do(http.MethodPost, "/admin/withdrawals/"+id+"/reject", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assertBalance(t, h.conn, user.ID, "50")

	w = h.do(http.MethodGet, "/account/transactions?type=withdrawal_refund", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])
}

func TestAdminUserManagement(t *testing.T) {
	h := newHarness(t)
	admin := testutil.CreateProfile(t, h.conn, "root", domain.RoleAdmin, 0)
	user := testutil.CreateProfile(t, h.conn, "alice", domain.RoleUser, 0)
	adminToken := h.login("root@example.com", "password123")
	userToken := h.login("alice@example.com", "password123")

	w := h.do(http.MethodPost, "/admin/users/"+strconv.Itoa(int(user.ID))+"/toggle-status", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusBlocked, decodeBody(t, w)["user"].(map[string]any)["status"])

	w = h.do(http.MethodPost, "/admin/users/"+strconv.Itoa(int(admin.ID))+"/toggle-status", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "admins cannot block themselves")

	w = h.do(http.MethodPost, "/admin/users/"+strconv.Itoa(int(user.ID))+"/bonus", adminToken, gin.H{"amount": "7.5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assertBalance(t, h.conn, user.ID, "7.5")

	w = h.do(http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody(t, w)["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["total_users"])
	assert.Equal(t, float64(1), stats["total_transactions"])

	w = h.do(http.MethodGet, "/admin/users?search=ali", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/admin/users", userToken, nil).Code)
}

func TestPackageCatalogRoutes(t *testing.T) {
	h := newHarness(t)
	testutil.CreateProfile(t, h.conn, "root", domain.RoleAdmin, 0)
	adminToken := h.login("root@example.com", "password123")

	w := h.do(http.MethodPost, "/admin/packages", adminToken, gin.H{
		"name": "Gold", "price": "500", "daily_profit_percentage": "3", "total_return_percentage": "90", "duration_days": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := strconv.Itoa(int(decodeBody(t, w)["package"].(map[string]any)["id"].(float64)))

	w = h.do(http.MethodGet, "/packages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["packages"], 1)

	w = h.do(http.MethodPatch, "/admin/packages/"+id, adminToken, gin.H{"active": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/packages", "", nil)
	assert.Len(t, decodeBody(t, w)["packages"], 0)
	w = h.do(http.MethodGet, "/admin/packages", adminToken, nil)
	assert.Len(t, decodeBody(t, w)["packages"], 1)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
