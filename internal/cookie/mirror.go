package cookie

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/storefront/internal/logger"
	"github.com/wolfeidau/storefront/internal/models"
	"github.com/wolfeidau/storefront/internal/storage"
	"github.com/wolfeidau/storefront/internal/telemetry"
)

// Mirror writes the credential into a cookie jar for the website origin.
// It never fails: problems are logged at debug level and surface later as a
// readback mismatch.
type Mirror struct {
	jar    http.CookieJar
	origin *url.URL
	log    zerolog.Logger
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets the logger used by the mirror.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Mirror) {
		m.log = log
	}
}

// NewMirror creates a mirror writing into jar for origin.
func NewMirror(jar http.CookieJar, origin *url.URL, opts ...Option) *Mirror {
	m := &Mirror{jar: jar, origin: origin, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sync writes token into the cookie, or expires the cookie when token is
// empty. Writing the same value twice leaves the jar unchanged.
func (m *Mirror) Sync(token string) {
	if m.jar == nil || m.origin == nil {
		m.log.Debug().Msg("cookie mirror has no jar, skipping")
		return
	}

	c, op := New(token), "set"
	if token == "" {
		c, op = Expired(), "expire"
	}

	m.jar.SetCookies(m.rootURL(), []*http.Cookie{c})
	telemetry.GetMetrics().RecordCookieWrite(context.Background(), op)

	m.log.Debug().
		Str("op", op).
		Str("credential", logger.Fingerprint(token)).
		Msg("credential cookie mirrored")
}

// Read returns the credential currently held by the cookie.
func (m *Mirror) Read() string {
	if m.jar == nil || m.origin == nil {
		return ""
	}
	for _, c := range m.jar.Cookies(m.rootURL()) {
		if c.Name == Name {
			return c.Value
		}
	}
	return ""
}

// SyncFromStorage mirrors the durable token slot and returns the credential
// it found. A missing or unreadable slot leaves the cookie untouched.
func (m *Mirror) SyncFromStorage(s storage.Storage) string {
	if s == nil {
		return ""
	}

	token, err := s.Get(storage.KeyToken)
	if err != nil {
		m.log.Debug().Err(err).Msg("no durable credential to mirror")
		return ""
	}

	if token != "" {
		m.Sync(token)
	}
	return token
}

// Observe keeps the cookie in step with a session, it is meant to be
// subscribed to the credential store.
func (m *Mirror) Observe(s models.Session) {
	m.Sync(s.Token)
}

func (m *Mirror) rootURL() *url.URL {
	u := *m.origin
	u.Path = Path
	u.RawQuery = ""
	u.Fragment = ""
	return &u
}
