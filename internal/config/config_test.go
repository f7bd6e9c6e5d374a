package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_missingFile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
websiteURL: https://shop.example.com
settleDelay: 250ms
`), 0o600))

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", p.WebsiteURL)
	assert.Equal(t, Default().APIURL, p.APIURL)
	assert.Equal(t, 250*time.Millisecond, p.SettleDelay)
}

func TestLoad_invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("websiteURL: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := Profile{
		WebsiteURL:  "http://127.0.0.1:3000",
		APIURL:      "http://127.0.0.1:8081",
		DataDir:     "/tmp/storefront",
		SettleDelay: time.Second,
	}
	require.NoError(t, Save(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMerge(t *testing.T) {
	base := Default()
	merged := base.Merge(Profile{APIURL: "http://api"})

	assert.Equal(t, "http://api", merged.APIURL)
	assert.Equal(t, base.WebsiteURL, merged.WebsiteURL)
	assert.Equal(t, base.SettleDelay, merged.SettleDelay)
}
