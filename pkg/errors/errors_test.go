package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", Clone(ErrTypeMismatch, "child_id must reference a child"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "TYPE_MISMATCH", appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "child_id must reference a child", appErr.Message)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")
	appErr := FromError(cause)

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "parent not found")
	assert.Equal(t, "parent not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.True(t, errors.Is(ErrCacheMiss, ErrCacheMiss))
}
