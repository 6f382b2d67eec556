package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	internalmiddleware "github.com/noah-isme/sma-roster-api/internal/middleware"
	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/repository"
	"github.com/noah-isme/sma-roster-api/internal/service"
)

type apiEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Error      *apiError       `json:"error"`
	Pagination map[string]int  `json:"pagination"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type testAPI struct {
	router *gin.Engine
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	metrics := service.NewMetricsService(store)
	family := service.NewFamilyService(store, metrics, nil, zap.NewNop())
	enrollments := service.NewEnrollmentService(store, nil, metrics, nil, zap.NewNop())
	exports := service.NewExportService(enrollments, nil, zap.NewNop())
	tokens := service.NewTokenService(service.TokenConfig{Secret: "test-secret", Expiry: time.Hour})
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := service.NewAuthService(tokens, []service.Operator{{Email: "ops@school.id", Role: models.RoleSuperAdmin, PasswordHash: string(hash)}}, nil, zap.NewNop())

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Auth:        NewAuthHandler(auth),
		Family:      NewFamilyHandler(family),
		Students:    NewStudentHandler(enrollments, exports),
		Courses:     NewCourseHandler(enrollments, exports),
		Enrollments: NewEnrollmentHandler(enrollments),
	}, internalmiddleware.JWT(tokens), internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	token, _, err := tokens.IssueToken("admin-1", models.RoleAdmin, "admin@example.com", "Admin")
	require.NoError(t, err)
	return &testAPI{router: router, token: token}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var envelope apiEnvelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func (a *testAPI) create(t *testing.T, path string, body interface{}) string {
	t.Helper()
	rec, envelope := a.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entity struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &entity))
	require.NotEmpty(t, entity.ID)
	return entity.ID
}

func TestFamilyRoutes(t *testing.T) {
	api := newTestAPI(t)
	parentID := api.create(t, "/api/v1/parents", map[string]string{"name": "Marge"})
	childID := api.create(t, "/api/v1/children", map[string]string{"name": "Lisa"})

	rec, _ := api.do(t, http.MethodPost, "/api/v1/parents/"+parentID+"/children", map[string]string{"child_id": childID})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, envelope := api.do(t, http.MethodPost, "/api/v1/parents/"+parentID+"/children", map[string]string{"child_id": childID})
	assert.Equal(t, http.StatusOK, rec.Code)
	var link models.FamilyLinkResult
	require.NoError(t, json.Unmarshal(envelope.Data, &link))
	assert.False(t, link.Created)

	_, envelope = api.do(t, http.MethodGet, "/api/v1/parents/"+parentID+"/children", nil)
	var children []models.Child
	require.NoError(t, json.Unmarshal(envelope.Data, &children))
	require.Len(t, children, 1)
	assert.Equal(t, childID, children[0].ID)

	_, envelope = api.do(t, http.MethodGet, "/api/v1/children/"+childID+"/parents", nil)
	var parents []models.Parent
	require.NoError(t, json.Unmarshal(envelope.Data, &parents))
	require.Len(t, parents, 1)
	assert.Equal(t, "Marge", parents[0].Name)

	rec, envelope = api.do(t, http.MethodPost, "/api/v1/parents/"+parentID+"/children", map[string]string{"child_id": parentID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "TYPE_MISMATCH", envelope.Error.Code)

	rec, envelope = api.do(t, http.MethodGet, "/api/v1/parents?limit=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, envelope.Pagination["total_count"])
}

func TestEnrollmentRoutes(t *testing.T) {
	api := newTestAPI(t)
	steveID := api.create(t, "/api/v1/students", map[string]string{"name": "Steve"})
	mathID := api.create(t, "/api/v1/courses", map[string]string{"title": "Math 31"})

	rec, envelope := api.do(t, http.MethodPost, "/api/v1/enrollments", map[string]string{"student_id": steveID, "course_id": mathID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var enrollment models.EnrollmentDetail
	require.NoError(t, json.Unmarshal(envelope.Data, &enrollment))
	assert.Equal(t, "Math 31", enrollment.Course.Title)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/enrollments/"+enrollment.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, envelope = api.do(t, http.MethodGet, "/api/v1/students/"+steveID+"/courses", nil)
	var courses []models.Course
	require.NoError(t, json.Unmarshal(envelope.Data, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "Math 31", courses[0].Title)

	_, envelope = api.do(t, http.MethodGet, "/api/v1/courses/"+mathID+"/students", nil)
	var students []models.Student
	require.NoError(t, json.Unmarshal(envelope.Data, &students))
	require.Len(t, students, 1)
	assert.Equal(t, "Steve", students[0].Name)

	rec, envelope = api.do(t, http.MethodPost, "/api/v1/enrollments", map[string]string{"student_id": mathID, "course_id": mathID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "TYPE_MISMATCH", envelope.Error.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/courses/"+mathID+"/roster/export?format=csv", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster-math-31.csv")
	assert.Contains(t, rec.Body.String(), "Steve")

	rec, envelope = api.do(t, http.MethodGet, "/api/v1/students/"+steveID+"/courses/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestWriteRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students", bytes.NewBufferString(`{"name":"Steve"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/students", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOperatorLoginTokenAuthorizesWrites(t *testing.T) {
	api := newTestAPI(t)
	api.token = ""

	rec, envelope := api.do(t, http.MethodPost, "/api/v1/auth/token", map[string]string{"email": "ops@school.id", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error.Code)

	rec, envelope = api.do(t, http.MethodPost, "/api/v1/auth/token", map[string]string{"email": "ops@school.id", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &login))
	assert.Equal(t, models.RoleSuperAdmin, login.Role)

	api.token = login.AccessToken
	rec, _ = api.do(t, http.MethodPost, "/api/v1/courses", map[string]string{"title": "Math 31"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}
