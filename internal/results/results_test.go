package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setOf(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestSetConcurrentInsert(t *testing.T) {
	s := NewSet()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				s.Insert(fmt.Sprintf("user%02d@x.com", (i+w)%50))
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Len(t, snap, 50)
	assert.Equal(t, 50, s.Len())
	assert.True(t, sort.StringsAreSorted(snap))
}

func TestSetInsertIdempotent(t *testing.T) {
	s := NewSet()
	assert.True(t, s.Insert("b@x.com"))
	assert.False(t, s.Insert("b@x.com"))
	assert.True(t, s.Insert("a@x.com"))
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, s.Snapshot())
}

func TestCompare(t *testing.T) {
	d := Compare([]string{"a@x.com", "b@x.com"}, setOf("a@x.com", "c@x.com"))

	assert.Equal(t, []string{"b@x.com"}, d.Additions)
	assert.Equal(t, []string{"c@x.com"}, d.Removals)
	assert.Equal(t, []string{"+ b@x.com", "- c@x.com"}, d.Lines(false))
	assert.Equal(t, []string{"+ b@x.com"}, d.Lines(true))
	assert.False(t, d.Empty(false))
	assert.False(t, d.Empty(true))
}

func TestComparePartition(t *testing.T) {
	current := []string{"a", "b", "d", "f", "b"}
	previous := setOf("b", "c", "d", "e")

	d := Compare(current, previous)

	add := setOf(d.Additions...)
	rem := setOf(d.Removals...)
	for id := range add {
		assert.NotContains(t, rem, id, "additions and removals must be disjoint")
	}

	union := setOf(d.Additions...)
	for id := range rem {
		union[id] = struct{}{}
	}
	for _, id := range current {
		if _, ok := previous[id]; ok {
			union[id] = struct{}{}
		}
	}

	want := setOf(current...)
	for id := range previous {
		want[id] = struct{}{}
	}
	assert.Equal(t, want, union)
}

func TestCompareIdempotent(t *testing.T) {
	current := []string{"z", "y", "x"}
	previous := setOf("x", "w")

	assert.Equal(t, Compare(current, previous), Compare(current, previous))
}

func TestDiffEmpty(t *testing.T) {
	onlyRemovals := Compare([]string{"a"}, setOf("a", "b"))
	assert.False(t, onlyRemovals.Empty(false))
	assert.True(t, onlyRemovals.Empty(true))
	assert.Empty(t, onlyRemovals.Lines(true))

	same := Compare([]string{"a"}, setOf("a"))
	assert.True(t, same.Empty(false))
}

func TestWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "valid_users.txt")

	require.NoError(t, WriteLines(path, []string{"a@x.com", "b@x.com"}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com\nb@x.com\n", string(got))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteLinesError(t *testing.T) {
	dir := t.TempDir()
	err := WriteLines(dir, []string{"a"})
	assert.Error(t, err)
}
