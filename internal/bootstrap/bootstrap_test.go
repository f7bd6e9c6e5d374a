package bootstrap

import (
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/storefront/internal/cookie"
	"github.com/wolfeidau/storefront/internal/storage"
)

func newMirror(t *testing.T) *cookie.Mirror {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	origin, err := url.Parse("http://localhost:3000")
	require.NoError(t, err)

	return cookie.NewMirror(jar, origin)
}

func TestRun_restoresCookieAfterRestart(t *testing.T) {
	dir := t.TempDir()

	before, err := storage.NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, before.Set(storage.KeyToken, "abc123"))

	// a fresh process: empty cookie jar, same durable storage
	durable, err := storage.NewFile(dir)
	require.NoError(t, err)
	mirror := newMirror(t)
	require.Empty(t, mirror.Read())

	assert.Equal(t, "abc123", New(durable, mirror).Run())
	assert.Equal(t, "abc123", mirror.Read())
}

func TestRun_once(t *testing.T) {
	durable := storage.NewMemory()
	require.NoError(t, durable.Set(storage.KeyToken, "abc123"))
	mirror := newMirror(t)

	b := New(durable, mirror)
	require.Equal(t, "abc123", b.Run())

	require.NoError(t, durable.Set(storage.KeyToken, "def456"))
	assert.Equal(t, "abc123", b.Run())
	assert.Equal(t, "abc123", mirror.Read())
}

func TestRun_nothingStored(t *testing.T) {
	mirror := newMirror(t)

	assert.Empty(t, New(storage.NewMemory(), mirror).Run())
	assert.Empty(t, New(storage.Unavailable{}, mirror).Run())
	assert.Empty(t, New(storage.NewMemory(), nil).Run())
	assert.Empty(t, mirror.Read())
}
