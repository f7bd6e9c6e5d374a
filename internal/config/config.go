// Package config loads the storefront client profile from
// ~/.storefront/config.yaml. Command line flags override profile values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".storefront"
	fileName = "config.yaml"
)

// Profile is the persisted client configuration.
type Profile struct {
	WebsiteURL  string        `yaml:"websiteURL"`
	APIURL      string        `yaml:"apiURL"`
	DataDir     string        `yaml:"dataDir,omitempty"`
	CacheDir    string        `yaml:"cacheDir,omitempty"`
	SettleDelay time.Duration `yaml:"settleDelay,omitempty"`
}

// Default returns the profile used when no file exists.
func Default() Profile {
	return Profile{
		WebsiteURL:  "http://localhost:3000",
		APIURL:      "http://localhost:8081",
		SettleDelay: 100 * time.Millisecond,
	}
}

// DefaultPath returns ~/.storefront/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Load reads the profile at path on top of Default. A missing file is not an
// error. An empty path uses DefaultPath.
func Load(path string) (Profile, error) {
	p := Default()

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return p, err
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read profile: %w", err)
	}

	var fromFile Profile
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	return p.Merge(fromFile), nil
}

// Save writes the profile to path, creating the directory when needed.
func Save(path string, p Profile) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// Merge returns p with every non-zero field of o applied.
func (p Profile) Merge(o Profile) Profile {
	if o.WebsiteURL != "" {
		p.WebsiteURL = o.WebsiteURL
	}
	if o.APIURL != "" {
		p.APIURL = o.APIURL
	}
	if o.DataDir != "" {
		p.DataDir = o.DataDir
	}
	if o.CacheDir != "" {
		p.CacheDir = o.CacheDir
	}
	if o.SettleDelay != 0 {
		p.SettleDelay = o.SettleDelay
	}
	return p
}
