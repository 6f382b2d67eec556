package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type fakeFamilySrv struct {
	familyService
	addErr      error
	lastParent  string
	lastRequest service.AddChildRequest
}

func (f *fakeFamilySrv) AddChild(_ context.Context, parentID string, req service.AddChildRequest) (*models.FamilyLinkResult, error) {
	f.lastParent = parentID
	f.lastRequest = req
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &models.FamilyLinkResult{FamilyLink: models.FamilyLink{ParentID: parentID, ChildID: req.ChildID}, Created: true}, nil
}

func TestFamilyHandlerAddChildInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeFamilySrv{}
	handler := NewFamilyHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/parents/p-1/children", bytes.NewBufferString("{"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "p-1"}}

	handler.AddChild(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastParent)
}

func TestFamilyHandlerAddChildPropagatesServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeFamilySrv{addErr: appErrors.Clone(appErrors.ErrTypeMismatch, "child_id must reference a child, got parent")}
	handler := NewFamilyHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/parents/p-1/children", bytes.NewBufferString(`{"child_id":"p-2"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "p-1"}}

	handler.AddChild(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "TYPE_MISMATCH")
	assert.Equal(t, "p-1", srv.lastParent)
	assert.Equal(t, "p-2", srv.lastRequest.ChildID)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	failing := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return assert.AnError },
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	failing.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, nil).Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}
