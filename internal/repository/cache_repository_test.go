package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientIsAMiss(t *testing.T) {
	repo := NewCacheRepository(nil, "roster", nil)
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "student:1:courses", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "student:1:courses", []string{"a"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "student:1:courses"))
	require.NoError(t, repo.DeleteByPattern(ctx, "student:*"))
	require.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyPrefix(t *testing.T) {
	assert.Equal(t, "roster:course:1", NewCacheRepository(nil, "roster", nil).key("course:1"))
	assert.Equal(t, "course:1", NewCacheRepository(nil, "", nil).key("course:1"))
}
