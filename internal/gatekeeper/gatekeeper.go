// Package gatekeeper decides, before any page handler runs, whether a request
// for a storefront route may proceed. Its only view of the session is the
// credential cookie.
package gatekeeper

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/wolfeidau/storefront/internal/cookie"
	"github.com/wolfeidau/storefront/internal/routes"
	"github.com/wolfeidau/storefront/internal/telemetry"
)

// Decision is the outcome of evaluating a request.
type Decision string

const (
	Allow    Decision = "allow"
	Redirect Decision = "redirect"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonStaticAsset Reason = "static_asset"
	ReasonPublic      Reason = "public"
	ReasonCookie      Reason = "cookie"
	// ReasonUnverified admits an idempotent request without a cookie. The
	// client may hold a credential its mirror has not written yet, the page
	// guard decides once the client runtime has mounted.
	ReasonUnverified Reason = "unverified"
	ReasonNoCookie   Reason = "no_cookie"
)

// Result is what Evaluate decided for a request.
type Result struct {
	Decision Decision
	Reason   Reason
	// Location is set for redirects.
	Location string
}

type contextKey struct{}

var resultContextKey contextKey

// FromContext returns the result the middleware admitted the request with.
func FromContext(ctx context.Context) (Result, bool) {
	res, ok := ctx.Value(resultContextKey).(Result)
	return res, ok
}

// Evaluate classifies r without side effects.
func Evaluate(r *http.Request, opts ...Option) Result {
	return newConfig(opts).evaluate(r)
}

func (c *config) evaluate(r *http.Request) Result {
	p := r.URL.Path
	switch {
	case routes.IsStaticAsset(p):
		return Result{Decision: Allow, Reason: ReasonStaticAsset}
	case routes.IsPublic(p):
		return Result{Decision: Allow, Reason: ReasonPublic}
	}

	if _, ok := cookie.FromRequest(r); ok {
		return Result{Decision: Allow, Reason: ReasonCookie}
	}

	if !c.strict && isIdempotent(r.Method) {
		return Result{Decision: Allow, Reason: ReasonUnverified}
	}

	return Result{
		Decision: Redirect,
		Reason:   ReasonNoCookie,
		Location: routes.LoginURL(r.URL.RequestURI()),
	}
}

// Middleware applies Evaluate to every request before next runs. Redirects use
// 303 See Other so a redirected form post turns into a GET of the login page.
// Unverified responses are marked no-store so a protected shell served
// without a cookie is never cached.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)
	metrics := telemetry.GetMetrics()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := cfg.evaluate(r)
			metrics.RecordDecision(r.Context(), string(res.Decision), string(res.Reason))

			log := cfg.logger(r)
			log.Debug().
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Str("decision", string(res.Decision)).
				Str("reason", string(res.Reason)).
				Msg("gatekeeper")

			switch res.Reason {
			case ReasonNoCookie:
				http.Redirect(w, r, res.Location, http.StatusSeeOther)
				return
			case ReasonUnverified:
				w.Header().Set("Cache-Control", "no-store")
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resultContextKey, res)))
		})
	}
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Option configures the gatekeeper.
type Option func(*config)

type config struct {
	strict bool
	log    *zerolog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithStrict redirects idempotent requests without a cookie as well.
func WithStrict() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithLogger sets the logger used when the request carries none.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = &log
	}
}

func (c *config) logger(r *http.Request) *zerolog.Logger {
	l := hlog.FromRequest(r)
	if l.GetLevel() == zerolog.Disabled && c.log != nil {
		return c.log
	}
	return l
}
