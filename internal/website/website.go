// Package website serves the storefront's page shells behind the route
// gatekeeper.
package website

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"filippo.io/csrf"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/wolfeidau/storefront/internal/cookie"
	"github.com/wolfeidau/storefront/internal/gatekeeper"
	httpmiddleware "github.com/wolfeidau/storefront/internal/http"
	"github.com/wolfeidau/storefront/internal/logger"
	"github.com/wolfeidau/storefront/internal/routes"
)

//go:embed static
var staticFS embed.FS

// Config configures the website.
type Config struct {
	// APIURL is handed to the page runtime.
	APIURL string
	// Strict redirects GET requests for protected routes without a cookie
	// instead of serving an unverified shell.
	Strict bool
	// TrustedOrigins may post forms cross-origin.
	TrustedOrigins []string
}

// Website is the storefront's HTML surface.
type Website struct {
	cfg      Config
	renderer *renderer
	static   fs.FS
	log      zerolog.Logger
}

// Option configures a Website.
type Option func(*Website)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Website) {
		s.log = log
	}
}

func New(cfg Config, opts ...Option) (*Website, error) {
	rd, err := newRenderer(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static assets: %w", err)
	}

	s := &Website{cfg: cfg, renderer: rd, static: static, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the website with its middleware. Every page route passes
// through the gatekeeper before its handler runs.
func (s *Website) Handler() (http.Handler, error) {
	pagesMux := http.NewServeMux()

	for _, p := range pages {
		pagesMux.HandleFunc("GET "+p.Pattern, s.renderer.handler(p, http.StatusOK))
		if p.Accepts {
			pagesMux.HandleFunc("POST "+p.Pattern, accept)
		}
	}

	fileServer := http.FileServerFS(s.static)
	pagesMux.Handle("GET /static/", http.StripPrefix("/static/", fileServer))
	pagesMux.Handle("GET /robots.txt", fileServer)
	pagesMux.HandleFunc("/", s.renderer.handler(notFoundPage, http.StatusNotFound))

	var gkOpts []gatekeeper.Option
	if s.cfg.Strict {
		gkOpts = append(gkOpts, gatekeeper.WithStrict())
	}
	gkOpts = append(gkOpts, gatekeeper.WithLogger(s.log))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("POST /logout", logout)
	mux.Handle("/", gatekeeper.Middleware(gkOpts...)(pagesMux))

	// HTML routes get cross-origin protection
	protection := csrf.New()
	for _, origin := range s.cfg.TrustedOrigins {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("invalid trusted origin %q: %w", origin, err)
		}
	}

	return httpmiddleware.Chain(mux,
		httpmiddleware.RequestIDMiddleware(),
		httpmiddleware.ClientIPMiddleware(),
		logger.Requests(s.log),
		func(h http.Handler) http.Handler { return gzhttp.GzipHandler(h) },
		protection.Handler,
	), nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("ok"))
}

// logout expires the credential cookie. The durable copy lives in the client
// runtime, which clears it itself.
func logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, cookie.Expired())
	hlog.FromRequest(r).Debug().Msg("credential cookie expired")
	http.Redirect(w, r, routes.Login, http.StatusSeeOther)
}

// ConfigureHTTPServer applies the timeouts every storefront server uses.
func ConfigureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
