package data

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	assert.Equal(t, []string{"a@x.com"}, Literal("  a@x.com "))
	assert.Nil(t, Literal("   "))
}

func TestReadLines(t *testing.T) {
	in := "b@x.com  \r\n\n  a@x.com\n\t\nc@x.com"
	ids, err := ReadLines(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com", "a@x.com", "c@x.com"}, ids)
}

func TestLoadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("z@x.com\ny@x.com\n"), 0o600))

	ids, err := LoadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"z@x.com", "y@x.com"}, ids)

	_, err = LoadLines(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestShuffleKeepsElements(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	shuffled := append([]string(nil), ids...)
	Shuffle(shuffled)

	sort.Strings(shuffled)
	assert.Equal(t, ids, shuffled)
}

func TestFilter(t *testing.T) {
	ids := []string{"alice@corp.com", "bob@other.org", "carol@corp.com"}

	re, err := CompileMatch(`@corp\.com$`)
	require.NoError(t, err)

	kept, dropped, err := Filter(ids, re)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@corp.com", "carol@corp.com"}, kept)
	assert.Equal(t, 1, dropped)

	kept, dropped, err = Filter(ids, nil)
	require.NoError(t, err)
	assert.Equal(t, ids, kept)
	assert.Zero(t, dropped)
}

func TestCompileMatchInvalid(t *testing.T) {
	_, err := CompileMatch(`(unclosed`)
	assert.Error(t, err)
}

func TestLoadSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prev.txt")
	require.NoError(t, os.WriteFile(path, []byte("a@x.com\nc@x.com\na@x.com"), 0o600))

	set, err := LoadSet(path)
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Contains(t, set, "a@x.com")
	assert.Contains(t, set, "c@x.com")
}
