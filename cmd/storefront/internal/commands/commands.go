package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/storefront/internal/app"
	"github.com/wolfeidau/storefront/internal/config"
	"github.com/wolfeidau/storefront/internal/logger"
)

// Globals are flags shared by every command. Set flags override the profile.
type Globals struct {
	Debug       bool          `help:"Enable debug mode."`
	Profile     string        `help:"Profile path (default: ~/.storefront/config.yaml)" env:"STOREFRONT_PROFILE"`
	WebsiteURL  string        `help:"Storefront website URL" env:"STOREFRONT_WEBSITE_URL"`
	APIURL      string        `help:"External API base URL" env:"STOREFRONT_API_URL"`
	DataDir     string        `help:"Durable storage directory (default: ~/.storefront/storage)" env:"STOREFRONT_DATA_DIR"`
	SettleDelay time.Duration `help:"Wait between storing a session and navigating" env:"STOREFRONT_SETTLE_DELAY"`
	Ephemeral   bool          `help:"Keep the session in memory only" default:"false"`
	Version     string        `kong:"-"`
}

func (g *Globals) newLogger() zerolog.Logger {
	return logger.Setup(g.Debug)
}

// mount loads the profile, builds the client runtime and opens entry.
func (g *Globals) mount(ctx context.Context, entry string) (*app.App, error) {
	profile, err := config.Load(g.Profile)
	if err != nil {
		return nil, err
	}
	profile = profile.Merge(config.Profile{
		WebsiteURL:  g.WebsiteURL,
		APIURL:      g.APIURL,
		DataDir:     g.DataDir,
		SettleDelay: g.SettleDelay,
	})

	a, err := app.New(app.Config{
		WebsiteURL:  profile.WebsiteURL,
		APIURL:      profile.APIURL,
		DataDir:     profile.DataDir,
		CacheDir:    profile.CacheDir,
		SettleDelay: profile.SettleDelay,
		Ephemeral:   g.Ephemeral,
	}, app.WithLogger(g.newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to start client: %w", err)
	}

	if err := a.Mount(ctx, entry); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open %s: %w", entry, err)
	}
	return a, nil
}
