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

	"github.com/wolfeidau/storefront/internal/logger"
	"github.com/wolfeidau/storefront/internal/telemetry"
	"github.com/wolfeidau/storefront/internal/website"
)

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:3000" env:"STOREFRONT_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"STOREFRONT_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"STOREFRONT_TLS_KEY"`

	// Upstream API
	APIURL     string        `help:"external API base URL handed to the page runtime" default:"http://localhost:8081" env:"STOREFRONT_API_URL"`
	WaitForAPI time.Duration `help:"wait up to this long for the API to become healthy, 0 disables" default:"0s" env:"STOREFRONT_WAIT_FOR_API"`

	// Route guarding
	Strict         bool     `help:"redirect cookieless GET requests for protected routes instead of serving an unverified shell" default:"false" env:"STOREFRONT_STRICT"`
	TrustedOrigins []string `help:"origins allowed to post forms cross-origin" env:"STOREFRONT_TRUSTED_ORIGINS"`

	Tracing bool `help:"enable tracing" default:"false" env:"STOREFRONT_TRACING"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting website")

	shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
		ServiceName: "storefront-website",
		Version:     globals.Version,
		Enabled:     c.Tracing,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}()

	if c.WaitForAPI > 0 {
		if err := website.WaitForAPI(ctx, c.APIURL, c.WaitForAPI, log); err != nil {
			return err
		}
	}

	site, err := website.New(website.Config{
		APIURL:         c.APIURL,
		Strict:         c.Strict,
		TrustedOrigins: c.TrustedOrigins,
	}, website.WithLogger(log))
	if err != nil {
		return err
	}

	handler, err := site.Handler()
	if err != nil {
		return err
	}

	useTLS := c.Cert != "" || c.Key != ""
	if useTLS {
		if c.Cert == "" || c.Key == "" {
			return errors.New("both --cert and --key are required for TLS")
		}
		if _, err := os.Stat(c.Cert); err != nil {
			return fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
		}
		if _, err := os.Stat(c.Key); err != nil {
			return fmt.Errorf("TLS key not found at %s: %w", c.Key, err)
		}
	}

	srv := website.ConfigureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Bool("tls", useTLS).Bool("strict", c.Strict).Msg("Listening")
		if useTLS {
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
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

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
