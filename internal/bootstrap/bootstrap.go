// Package bootstrap mirrors a durable credential into the cookie on first
// mount, before the reactive store has rehydrated. Without it the first
// navigation after a restart can reach the gatekeeper without a cookie.
package bootstrap

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/storefront/internal/cookie"
	"github.com/wolfeidau/storefront/internal/logger"
	"github.com/wolfeidau/storefront/internal/storage"
)

// Bootstrapper runs once per mount.
type Bootstrapper struct {
	durable storage.Storage
	mirror  *cookie.Mirror
	log     zerolog.Logger

	once  sync.Once
	token string
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithLogger sets the logger used by the bootstrapper.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Bootstrapper) {
		b.log = log
	}
}

// New creates a bootstrapper reading durable and writing through mirror.
func New(durable storage.Storage, mirror *cookie.Mirror, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{durable: durable, mirror: mirror, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run mirrors the durable token slot into the cookie. Only the first call has
// any effect, later calls return the credential found by the first. Failures
// are logged and swallowed.
func (b *Bootstrapper) Run() string {
	b.once.Do(func() {
		if b.mirror == nil {
			return
		}

		b.token = b.mirror.SyncFromStorage(b.durable)
		b.log.Debug().
			Bool("credential", b.token != "").
			Str("fingerprint", logger.Fingerprint(b.token)).
			Msg("session bootstrapped")
	})
	return b.token
}
