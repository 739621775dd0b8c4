package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/2302304/3d-tulostinvaraus/config"
	"github.com/2302304/3d-tulostinvaraus/internal/model"
	"github.com/2302304/3d-tulostinvaraus/pkg/jwt"
	"github.com/2302304/3d-tulostinvaraus/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 测试辅助 ──

type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s *stubBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	s.revoked[jti] = true
	return nil
}

func (s *stubBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

type stubStore struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubStore) CheckRateLimit(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

func newJWTManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "middleware-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newJWTManager()
	bl := &stubBlacklist{revoked: map[string]bool{}}

	r := gin.New()
	r.GET("/me", JWTAuth(mgr, bl, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id")+"|"+c.GetString("role"))
	})

	access, err := mgr.GenerateAccessToken("user-1", model.RoleStaff)
	require.NoError(t, err)
	refresh, err := mgr.GenerateRefreshToken("user-1", model.RoleStaff)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1|STAFF", w.Body.String())

	cases := map[string]string{
		"缺少认证头":       "",
		"格式错误":        "Token " + access,
		"refresh 不可用": "Bearer " + refresh,
		"伪造":          "Bearer not.a.jwt",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, http.StatusUnauthorized, do(r, req).Code, name)
	}

	claims, err := mgr.ParseToken(access)
	require.NoError(t, err)
	bl.revoked[claims.ID] = true
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code, "黑名单中的 Token 应被拒绝")
}

func TestJWTAuth_BlacklistErrorFailsOpen(t *testing.T) {
	mgr := newJWTManager()
	bl := &stubBlacklist{revoked: map[string]bool{}, err: errors.New("redis down")}

	r := gin.New()
	r.GET("/me", JWTAuth(mgr, bl, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	access, err := mgr.GenerateAccessToken("user-1", model.RoleStudent)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	build := func(role string) *gin.Engine {
		r := gin.New()
		r.GET("/admin", func(c *gin.Context) {
			if role != "" {
				c.Set("role", role)
			}
			c.Next()
		}, RoleAuth(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	assert.Equal(t, http.StatusOK, do(build(model.RoleAdmin), httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
	assert.Equal(t, http.StatusForbidden, do(build(model.RoleStudent), httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(build(""), httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
}

// ── RateLimit ──

func TestRateLimit_LocalFallback(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", RateLimit(nil, 3, time.Hour, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodPost, "/auth/login", nil)).Code)
	}
	w := do(r, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
}

func TestRateLimit_UsesStore(t *testing.T) {
	store := &stubStore{allowed: false}
	r := gin.New()
	r.GET("/x", RateLimit(store, 100, time.Minute, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, 1, store.calls)

	store.allowed = true
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestRateLimit_StoreErrorFallsBack(t *testing.T) {
	store := &stubStore{err: errors.New("redis down")}
	r := gin.New()
	r.GET("/x", RateLimit(store, 1, time.Hour, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

// ── RequestID / BodyLimit / CORS / SecurityHeaders ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	var rid string
	r.GET("/x", RequestID(), func(c *gin.Context) {
		rid = c.GetString(requestIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := do(r, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", rid)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	w = do(r, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36, "过长的 ID 应被替换为 UUID")
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodyLimit(16), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("a", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := do(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	// 普通请求暴露下载文件名，但不重复返回预检头
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = do(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Expose-Headers"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/x", SecurityHeaders(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Cache-Control"), "公开请求不强制 no-store")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("X-Forwarded-Proto", "https")
	w = do(r, req)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

// ── Logger ──

func TestLogger_RecordsRouteAndErrorKind(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.POST("/api/v1/reservations/:id/cancel", func(c *gin.Context) {
		c.Set("user_id", "user-a")
		c.Set("role", model.RoleStudent)
		response.Fail(c, http.StatusConflict, 20007, "TIME_SLOT_TAKEN", "time slot taken")
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, httptest.NewRequest(http.MethodPost, "/api/v1/reservations/abc/cancel", nil))
	do(r, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	rejected := entries[0]
	assert.Equal(t, zapcore.WarnLevel, rejected.Level)
	assert.Equal(t, "预约接口请求被拒绝", rejected.Message)
	fields := rejected.ContextMap()
	assert.Equal(t, "/api/v1/reservations/:id/cancel", fields["route"])
	assert.Equal(t, "/api/v1/reservations/abc/cancel", fields["path"])
	assert.Equal(t, "TIME_SLOT_TAKEN", fields["error_kind"])
	assert.Equal(t, "user-a", fields["user_id"])
	assert.Equal(t, model.RoleStudent, fields["role"])
	assert.NotEmpty(t, fields["request_id"])
	_, hasQuery := fields["query"]
	assert.False(t, hasQuery)

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level, "健康检查只在 Debug 级别记录")
}
