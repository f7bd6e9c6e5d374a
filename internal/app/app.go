// Package app composes the storefront client runtime: the credential store,
// the cookie mirror, the bootstrapper, guarded navigation and the API
// gateway, all sharing one cookie jar with the website.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/wolfeidau/storefront/internal/bootstrap"
	"github.com/wolfeidau/storefront/internal/browser"
	"github.com/wolfeidau/storefront/internal/client"
	"github.com/wolfeidau/storefront/internal/cookie"
	"github.com/wolfeidau/storefront/internal/login"
	"github.com/wolfeidau/storefront/internal/models"
	"github.com/wolfeidau/storefront/internal/navigation"
	"github.com/wolfeidau/storefront/internal/routes"
	"github.com/wolfeidau/storefront/internal/session"
	"github.com/wolfeidau/storefront/internal/storage"
	"github.com/wolfeidau/storefront/internal/telemetry"
)

// Config configures the client runtime.
type Config struct {
	WebsiteURL string
	APIURL     string
	// DataDir holds the durable slots. Empty uses ~/.storefront/storage.
	DataDir  string
	CacheDir string
	// SettleDelay is waited between storing a session and navigating.
	SettleDelay time.Duration
	Timeout     time.Duration
	// Ephemeral runs without durable storage, like a private browsing window.
	Ephemeral bool
}

// App is one mounted storefront client.
type App struct {
	durable  storage.Storage
	slots    storage.Storage
	sessions *session.Store
	mirror   *cookie.Mirror
	boot     *bootstrap.Bootstrapper
	browser  *browser.Browser
	nav      *navigation.Navigator
	api      *client.Client
	flow     *login.Flow
	log      zerolog.Logger

	unsubscribe func()
}

// Option configures an App.
type Option func(*options)

type options struct {
	log     zerolog.Logger
	jar     http.CookieJar
	durable storage.Storage
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithJar replaces the cookie jar shared with the website.
func WithJar(jar http.CookieJar) Option {
	return func(o *options) {
		o.jar = jar
	}
}

// WithDurableStorage replaces the durable storage.
func WithDurableStorage(s storage.Storage) Option {
	return func(o *options) {
		o.durable = s
	}
}

// New wires the client runtime. Nothing is read or navigated until Mount.
func New(cfg Config, opts ...Option) (*App, error) {
	o := &options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}

	if cfg.WebsiteURL == "" || cfg.APIURL == "" {
		return nil, errors.New("app: website and api URLs are required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	durable, err := openDurable(cfg, o)
	if err != nil {
		return nil, err
	}

	jar := o.jar
	if jar == nil {
		if jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
	}

	b, err := browser.New(cfg.WebsiteURL, jar, browser.WithLogger(o.log))
	if err != nil {
		return nil, err
	}

	a := &App{
		durable:  durable,
		slots:    storage.NewMemory(),
		sessions: session.New(durable, session.WithLogger(o.log)),
		mirror:   cookie.NewMirror(jar, b.Origin(), cookie.WithLogger(o.log)),
		browser:  b,
		log:      o.log,
	}

	a.unsubscribe = a.sessions.Subscribe(a.mirror.Observe)
	a.boot = bootstrap.New(durable, a.mirror, bootstrap.WithLogger(o.log))
	a.nav = navigation.New(durable, a.mirror, b, b, navigation.WithLogger(o.log))

	a.api, err = client.New(client.Config{
		BaseURL:  cfg.APIURL,
		Timeout:  cfg.Timeout,
		CacheDir: cfg.CacheDir,
	}, a.sessions.TokenSource(),
		client.WithLogger(o.log),
		client.WithUnauthorizedHandler(a.onUnauthorized()),
	)
	if err != nil {
		return nil, err
	}

	flowOpts := []login.Option{login.WithLogger(o.log)}
	if cfg.SettleDelay > 0 {
		flowOpts = append(flowOpts, login.WithSettleDelay(cfg.SettleDelay))
	}
	a.flow = login.New(a.api, a.sessions, a.slots, a.nav, flowOpts...)

	return a, nil
}

func openDurable(cfg Config, o *options) (storage.Storage, error) {
	switch {
	case o.durable != nil:
		return o.durable, nil
	case cfg.Ephemeral:
		return storage.Unavailable{}, nil
	}

	f, err := storage.NewFile(cfg.DataDir, storage.WithLogger(o.log))
	if err != nil {
		return nil, fmt.Errorf("failed to open durable storage: %w", err)
	}
	return f, nil
}

func (a *App) onUnauthorized() client.UnauthorizedFunc {
	clearAndRedirect := client.ClearAndRedirect(a.sessions, a.browser.Location, a.nav, a.log)
	return func(ctx context.Context) {
		telemetry.GetMetrics().RecordSessionCleared(ctx, "unauthorized")
		clearAndRedirect(ctx)
	}
}

// Mount starts the runtime the way opening entry in a new tab does: the
// durable credential is mirrored into the cookie, the store rehydrates and
// entry is loaded as a full document before the page guard runs.
func (a *App) Mount(ctx context.Context, entry string) error {
	a.boot.Run()
	a.sessions.Rehydrate()

	if err := a.nav.Redirect(ctx, entry); err != nil {
		return err
	}
	return a.guard(ctx)
}

// Visit navigates to dest in-app, falling back to a full load when the
// cookie cannot be confirmed, then applies the page guard.
func (a *App) Visit(ctx context.Context, dest string) (navigation.Mode, error) {
	mode, err := a.nav.Navigate(ctx, dest)
	if err != nil {
		return mode, err
	}
	return mode, a.guard(ctx)
}

// guard is the page level authorization check run after every arrival.
func (a *App) guard(ctx context.Context) error {
	location := a.browser.Location()
	sess := a.sessions.Snapshot()

	target, redirect := routes.Resolve(sess, location)
	if !redirect {
		return nil
	}

	if !sess.IsAuthenticated() {
		login.RememberDestination(a.slots, location)
	}

	a.log.Debug().Str("from", location).Str("to", target).Msg("page guard redirect")

	_, err := a.nav.Navigate(ctx, target)
	return err
}

// Login signs in from the current page and returns where the user landed.
// The login page's redirect parameter is honoured when present.
func (a *App) Login(ctx context.Context, email, password string) (string, error) {
	redirectParam := ""
	if u, err := url.Parse(a.browser.Location()); err == nil && routes.Normalize(u.Path) == routes.Login {
		if p, ok := routes.ReturnPathFrom(u.Query()); ok {
			redirectParam = p
		}
	}

	return a.flow.Login(ctx, email, password, redirectParam)
}

// Logout signs out and lands on the login page.
func (a *App) Logout(ctx context.Context) error {
	return a.flow.Logout(ctx)
}

// Location is the path and query of the current page.
func (a *App) Location() string {
	return a.browser.Location()
}

// Page is the document currently shown.
func (a *App) Page() browser.Page {
	return a.browser.Page()
}

// Session returns a copy of the current session.
func (a *App) Session() models.Session {
	return a.sessions.Snapshot()
}

// API is the gateway to the external API.
func (a *App) API() *client.Client {
	return a.api
}

// Durable is the storage the credential survives restarts in.
func (a *App) Durable() storage.Storage {
	return a.durable
}

// CookieCredential is the credential the gatekeeper will see.
func (a *App) CookieCredential() string {
	return a.mirror.Read()
}

// Close detaches the cookie mirror from the store.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
