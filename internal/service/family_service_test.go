package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/repository"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newFamilyServiceForTest(t *testing.T) (*FamilyService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := NewFamilyService(store, NewMetricsService(store), validator.New(), zap.NewNop())
	return svc, store
}

func requireAppError(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.Status)
}

func TestFamilyServiceAddChildLinksBothDirections(t *testing.T) {
	svc, _ := newFamilyServiceForTest(t)
	ctx := context.Background()
	linkedAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = fixedClock(linkedAt)

	parent, err := svc.CreateParent(ctx, CreatePersonRequest{Name: "Marge"})
	require.NoError(t, err)
	child, err := svc.CreateChild(ctx, CreatePersonRequest{Name: "Lisa"})
	require.NoError(t, err)

	result, err := svc.AddChild(ctx, parent.ID, AddChildRequest{ChildID: child.ID})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, linkedAt, result.LinkedAt)

	children, err := svc.ChildrenOf(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	parents, err := svc.ParentsOf(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, parent.ID, parents[0].ID)
}

func TestFamilyServiceAddChildTwiceIsNoop(t *testing.T) {
	svc, store := newFamilyServiceForTest(t)
	ctx := context.Background()
	first := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = fixedClock(first)

	parent, _ := svc.CreateParent(ctx, CreatePersonRequest{Name: "Homer"})
	child, _ := svc.CreateChild(ctx, CreatePersonRequest{Name: "Bart"})

	_, err := svc.AddChild(ctx, parent.ID, AddChildRequest{ChildID: child.ID})
	require.NoError(t, err)

	svc.now = fixedClock(first.Add(time.Hour))
	again, err := svc.AddChild(ctx, parent.ID, AddChildRequest{ChildID: child.ID})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first, again.LinkedAt)

	links, _ := store.Counts()
	assert.Equal(t, 1, links)
	children, _ := svc.ChildrenOf(ctx, parent.ID)
	assert.Len(t, children, 1)
}

func TestFamilyServiceAddChildRejectsWrongKind(t *testing.T) {
	svc, store := newFamilyServiceForTest(t)
	ctx := context.Background()

	parent, _ := svc.CreateParent(ctx, CreatePersonRequest{Name: "Homer"})
	other, _ := svc.CreateParent(ctx, CreatePersonRequest{Name: "Ned"})
	child, _ := svc.CreateChild(ctx, CreatePersonRequest{Name: "Bart"})

	_, err := svc.AddChild(ctx, parent.ID, AddChildRequest{ChildID: other.ID})
	requireAppError(t, err, appErrors.ErrTypeMismatch.Code, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "child_id must reference a child")

	_, err = svc.AddChild(ctx, child.ID, AddChildRequest{ChildID: child.ID})
	requireAppError(t, err, appErrors.ErrTypeMismatch.Code, http.StatusUnprocessableEntity)

	links, _ := store.Counts()
	assert.Zero(t, links)
	children, err := svc.ChildrenOf(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
	parents, err := svc.ParentsOf(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestFamilyServiceAddChildUnknownIDs(t *testing.T) {
	svc, _ := newFamilyServiceForTest(t)
	ctx := context.Background()
	parent, _ := svc.CreateParent(ctx, CreatePersonRequest{Name: "Homer"})

	_, err := svc.AddChild(ctx, parent.ID, AddChildRequest{ChildID: uuid.NewString()})
	requireAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)

	_, err = svc.AddChild(ctx, "not-a-uuid", AddChildRequest{ChildID: uuid.NewString()})
	requireAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)

	_, err = svc.AddChild(ctx, parent.ID, AddChildRequest{})
	requireAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)
}

func TestFamilyServiceCreateValidation(t *testing.T) {
	svc, _ := newFamilyServiceForTest(t)

	_, err := svc.CreateParent(context.Background(), CreatePersonRequest{Name: "   "})
	requireAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)

	child, err := svc.CreateChild(context.Background(), CreatePersonRequest{Name: "  Maggie "})
	require.NoError(t, err)
	assert.Equal(t, "Maggie", child.Name)
	assert.NotEmpty(t, child.ID)
}

func TestFamilyServiceGetChecksKind(t *testing.T) {
	svc, _ := newFamilyServiceForTest(t)
	ctx := context.Background()
	child, _ := svc.CreateChild(ctx, CreatePersonRequest{Name: "Lisa"})

	_, err := svc.GetParent(ctx, child.ID)
	requireAppError(t, err, appErrors.ErrTypeMismatch.Code, http.StatusUnprocessableEntity)

	got, err := svc.GetChild(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lisa", got.Name)
}

func TestFamilyServiceListParentsPagination(t *testing.T) {
	svc, _ := newFamilyServiceForTest(t)
	ctx := context.Background()
	for _, name := range []string{"Abe", "Homer", "Marge"} {
		_, err := svc.CreateParent(ctx, CreatePersonRequest{Name: name})
		require.NoError(t, err)
	}

	parents, pagination, err := svc.ListParents(ctx, models.ListFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, "Marge", parents[0].Name)
	assert.Equal(t, 3, pagination.TotalCount)
	assert.Equal(t, 2, pagination.Page)
}

type failingFamilyStore struct {
	*repository.MemoryStore
}

func (f failingFamilyStore) LinkChild(ctx context.Context, link *models.FamilyLink) (bool, error) {
	return false, errors.New("connection reset")
}

func TestFamilyServiceAddChildStoreFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewFamilyService(failingFamilyStore{store}, nil, nil, nil)
	ctx := context.Background()
	parent, _ := svc.CreateParent(ctx, CreatePersonRequest{Name: "Homer"})
	child, _ := svc.CreateChild(ctx, CreatePersonRequest{Name: "Bart"})

	_, err := svc.AddChild(ctx, parent.ID, AddChildRequest{ChildID: child.ID})
	requireAppError(t, err, appErrors.ErrInternal.Code, http.StatusInternalServerError)
}
