package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "stemverse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Storage{
		"memory": NewMemory(),
		"file":   NewFile(filepath.Join(t.TempDir(), "saves")),
		"sqlite": sq,
	}
}

func TestStorageRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get("stemverseGameState")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put("stemverseGameState", []byte(`{"totalTokens":5}`)))
			got, err := s.Get("stemverseGameState")
			require.NoError(t, err)
			assert.JSONEq(t, `{"totalTokens":5}`, string(got))

			require.NoError(t, s.Put("stemverseGameState", []byte(`{"totalTokens":7}`)))
			got, err = s.Get("stemverseGameState")
			require.NoError(t, err)
			assert.JSONEq(t, `{"totalTokens":7}`, string(got))

			require.NoError(t, s.Delete("stemverseGameState"))
			_, err = s.Get("stemverseGameState")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error.
			assert.NoError(t, s.Delete("stemverseGameState"))
		})
	}
}

func TestStorageKeysAreIndependent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("a", []byte("1")))
			require.NoError(t, s.Put("b", []byte("2")))
			a, err := s.Get("a")
			require.NoError(t, err)
			b, err := s.Get("b")
			require.NoError(t, err)
			assert.Equal(t, "1", string(a))
			assert.Equal(t, "2", string(b))
		})
	}
}

func TestStorageRejectsBadKeys(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "  ", "../escape", `a\b`, ".."} {
				assert.Error(t, s.Put(key, []byte("x")), "key %q", key)
				_, err := s.Get(key)
				assert.Error(t, err, "key %q", key)
			}
		})
	}
}

func TestFilePutLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	f := NewFile(dir)
	require.NoError(t, f.Put("state", []byte("{}")))
	require.NoError(t, f.Put("state", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Put("k", buf))
	buf[0] = 'z'
	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
