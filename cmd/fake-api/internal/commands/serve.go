package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/storefront/internal/fakeapi"
	"github.com/wolfeidau/storefront/internal/logger"
	"github.com/wolfeidau/storefront/internal/website"
)

type ServeCmd struct {
	Listen      string        `help:"HTTP server listen address" default:"127.0.0.1:8081" env:"STOREFRONT_API_LISTEN"`
	TokenTTL    time.Duration `help:"lifetime of issued bearer tokens" default:"24h" env:"STOREFRONT_API_TOKEN_TTL"`
	CORSOrigins []string      `help:"allowed CORS origins" default:"http://localhost:3000" env:"STOREFRONT_API_CORS_ORIGINS"`
	Seeds       string        `help:"YAML file of accounts to create, the development accounts are used when empty" env:"STOREFRONT_API_SEEDS"`
}

type seedFile struct {
	Accounts []fakeapi.Seed `yaml:"accounts"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := fakeapi.DefaultConfig()
	cfg.TokenTTL = c.TokenTTL
	cfg.CORSOrigins = c.CORSOrigins

	if c.Seeds != "" {
		seeds, err := loadSeeds(c.Seeds)
		if err != nil {
			return err
		}
		cfg.Seeds = seeds
	}

	api, err := fakeapi.New(cfg, fakeapi.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create api: %w", err)
	}

	for _, s := range cfg.Seeds {
		log.Info().Str("email", s.Email).Str("role", s.Role).Msg("Seeded account")
	}

	srv := website.ConfigureHTTPServer(c.Listen, api.Handler())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("version", globals.Version).Str("addr", c.Listen).Msg("Starting fake API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadSeeds(path string) ([]fakeapi.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seeds %s: %w", path, err)
	}
	if len(f.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts in %s", path)
	}
	return f.Accounts, nil
}
