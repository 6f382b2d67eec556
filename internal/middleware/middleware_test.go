package middleware

import (
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

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	"github.com/noah-isme/sma-roster-api/pkg/logger"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/parents", chain...)
	return r
}

func issue(t *testing.T, tokens *service.TokenService, role models.UserRole) string {
	t.Helper()
	token, _, err := tokens.IssueToken("user-1", role, "user@example.com", "User")
	require.NoError(t, err)
	return token
}

func TestJWTAndRoles(t *testing.T) {
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret", Expiry: time.Hour})
	r := newTestRouter(JWT(tokens), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + issue(t, tokens, models.UserRole("STUDENT")), status: http.StatusForbidden},
		{name: "admin", header: "Bearer " + issue(t, tokens, models.RoleAdmin), status: http.StatusNoContent},
		{name: "superadmin", header: "bearer " + issue(t, tokens, models.RoleSuperAdmin), status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/parents", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	r := newTestRouter(RequireRoles(models.RoleAdmin))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/parents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestOptionalJWT(t *testing.T) {
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret"})
	var (
		seen  *models.JWTClaims
		actor string
	)
	r := newTestRouter(OptionalJWT(tokens), func(c *gin.Context) {
		if v, ok := c.Get(ContextUserKey); ok {
			seen = v.(*models.JWTClaims)
		}
		actor = c.GetString(logger.ContextActorKey)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/parents", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)

	req := httptest.NewRequest(http.MethodPost, "/parents", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, models.RoleAdmin))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.NotNil(t, seen)
	assert.Equal(t, models.RoleAdmin, seen.Role)
	assert.Equal(t, seen.UserID, actor)
}

func TestMetricsLabelsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService(nil)
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	for _, path := range []string{"/students/a", "/students/b", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/students/:id",status="200"} 2`))
	assert.True(t, strings.Contains(body, `path="unmatched",status="404"`))
	assert.False(t, strings.Contains(body, `path="/metrics"`))
}

func TestAuditLogsSuccessfulWritesOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret"})

	r := gin.New()
	r.POST("/students", JWT(tokens), Audit(zap.New(core)), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/courses", Audit(zap.New(core)), func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	req := httptest.NewRequest(http.MethodPost, "/students", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, models.RoleAdmin))
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/courses", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].Message)
	assert.Equal(t, "user-1", entries[0].ContextMap()["actor"])
	assert.Equal(t, "/students", entries[0].ContextMap()["route"])
}
