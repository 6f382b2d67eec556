package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = Value(c) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(headerKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "abc-123")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc-123", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, strings.Repeat("x", 200))
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}
