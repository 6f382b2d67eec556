package relation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexLinkIsVisibleFromBothSides(t *testing.T) {
	ix := NewIndex[string, string]()

	require.True(t, ix.Link("p1", "c1"))
	require.True(t, ix.Link("p1", "c2"))
	require.True(t, ix.Link("p2", "c1"))

	assert.Equal(t, []string{"c1", "c2"}, ix.Right("p1"))
	assert.Equal(t, []string{"p1", "p2"}, ix.Left("c1"))
	assert.Equal(t, []string{"p1"}, ix.Left("c2"))
	assert.True(t, ix.Has("p2", "c1"))
	assert.False(t, ix.Has("p2", "c2"))
	assert.Equal(t, 3, ix.Len())
}

func TestIndexLinkDuplicateIsNoop(t *testing.T) {
	ix := NewIndex[string, int]()

	require.True(t, ix.Link("a", 1))
	assert.False(t, ix.Link("a", 1))
	assert.Equal(t, []int{1}, ix.Right("a"))
	assert.Equal(t, []string{"a"}, ix.Left(1))
	assert.Equal(t, 1, ix.Len())
}

func TestIndexViewsAreCopies(t *testing.T) {
	ix := NewIndex[string, string]()
	ix.Link("p", "c")

	view := ix.Right("p")
	view[0] = "mutated"

	assert.Equal(t, []string{"c"}, ix.Right("p"))
	assert.Empty(t, ix.Right("unknown"))
}

func TestIndexConcurrentLinksStayConsistent(t *testing.T) {
	ix := NewIndex[string, string]()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				ix.Link(fmt.Sprintf("p%d", i), fmt.Sprintf("c%d", j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 200, ix.Len())
	for j := 0; j < 10; j++ {
		assert.Len(t, ix.Left(fmt.Sprintf("c%d", j)), 20)
	}
}
