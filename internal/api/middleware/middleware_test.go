package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"field-service-api/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	r := gin.New()
	r.GET("/me", Authenticate(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    c.GetString(ContextUserID),
			"email": c.GetString(ContextEmail),
			"role":  c.GetString(ContextRole),
		})
	})

	token, err := tokens.Generate("u1", "admin@example.com", "admin")
	require.NoError(t, err)
	expired, err := auth.NewTokenManager("test-secret", -time.Minute).Generate("u1", "a@b.c", "admin")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", token, http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.JSONEq(t, `{"id":"u1","email":"admin@example.com","role":"admin"}`, w.Body.String())
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	r := gin.New()
	withRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				c.Set(ContextRole, role)
			}
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/admin", withRole("admin"), Authorize("admin"), ok)
	r.GET("/viewer", withRole("viewer"), Authorize("admin"), ok)
	r.GET("/anonymous", withRole(""), Authorize("admin"), ok)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, httptest.NewRequest(http.MethodGet, "/viewer", nil)).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, httptest.NewRequest(http.MethodGet, "/anonymous", nil)).Code)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2)
	r := gin.New()
	r.POST("/login", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":4321"
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiterDropsStaleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	rl.get("10.0.0.1")
	rl.get("10.0.0.2")
	require.Equal(t, 2, rl.Len())

	clock = clock.Add(2 * time.Minute)
	rl.get("10.0.0.2")

	clock = clock.Add(2 * time.Minute)
	rl.get("10.0.0.3")
	// .1 was last seen 4 minutes ago, .2 two minutes ago
	assert.Equal(t, 2, rl.Len())
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}
