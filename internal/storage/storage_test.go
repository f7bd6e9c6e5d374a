package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gregjones/httpcache/diskcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageImplementations(t *testing.T) {
	stores := map[string]func(t *testing.T) Storage{
		"memory": func(t *testing.T) Storage { return NewMemory() },
		"disk cache": func(t *testing.T) Storage {
			return NewCache(diskcache.New(t.TempDir()))
		},
		"file": func(t *testing.T) Storage {
			f, err := NewFile(t.TempDir())
			require.NoError(t, err)
			return f
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)

			_, err := s.Get(KeyToken)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(KeyToken, "abc123"))
			v, err := s.Get(KeyToken)
			require.NoError(t, err)
			assert.Equal(t, "abc123", v)

			require.NoError(t, s.Set(KeyToken, "def456"))
			assert.Equal(t, "def456", Lookup(s, KeyToken))

			require.NoError(t, s.Remove(KeyToken))
			require.NoError(t, s.Remove(KeyToken))
			_, err = s.Get(KeyToken)
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFile_survivesReopen(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(KeyToken, "abc123"))
	require.NoError(t, first.Set(KeyUser, `{"id":"u1"}`))

	second, err := NewFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc123", Lookup(second, KeyToken))
	assert.Equal(t, `{"id":"u1"}`, Lookup(second, KeyUser))

	info, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dir, fileName+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFile_corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("{not json"), 0600))

	f, err := NewFile(dir)
	require.NoError(t, err)

	_, err = f.Get(KeyToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Empty(t, Lookup(f, KeyToken))
}

func TestUnavailable(t *testing.T) {
	var s Storage = Unavailable{}

	_, err := s.Get(KeyToken)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, s.Set(KeyToken, "abc123"), ErrUnavailable)
	require.ErrorIs(t, s.Remove(KeyToken), ErrUnavailable)
	assert.Empty(t, Lookup(s, KeyToken))
}

func TestTake(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set(KeyRedirectAfterLogin, "/cars/new"))

	v, err := Take(s, KeyRedirectAfterLogin)
	require.NoError(t, err)
	assert.Equal(t, "/cars/new", v)

	_, err = Take(s, KeyRedirectAfterLogin)
	require.ErrorIs(t, err, ErrNotFound)
}
