// Package navigation moves the client between storefront routes. Before an
// in-app transition it makes sure the gatekeeper will see the same
// credential the client holds, and falls back to a full document load when it
// cannot.
package navigation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/storefront/internal/cookie"
	"github.com/wolfeidau/storefront/internal/storage"
	"github.com/wolfeidau/storefront/internal/telemetry"
)

// Mode is how a navigation was carried out.
type Mode int

const (
	// ModeInApp is a client side transition.
	ModeInApp Mode = iota
	// ModeFull is a full document load that passes through the gatekeeper
	// with whatever cookie the jar holds.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeInApp:
		return "in-app"
	case ModeFull:
		return "full"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Router performs in-app transitions.
type Router interface {
	Push(ctx context.Context, dest string) error
}

// Loader performs full document navigations.
type Loader interface {
	Load(ctx context.Context, dest string) error
}

// Navigator is the guarded navigation helper.
type Navigator struct {
	durable storage.Storage
	mirror  *cookie.Mirror
	router  Router
	loader  Loader
	log     zerolog.Logger
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the logger used by the navigator.
func WithLogger(log zerolog.Logger) Option {
	return func(n *Navigator) {
		n.log = log
	}
}

func New(durable storage.Storage, mirror *cookie.Mirror, router Router, loader Loader, opts ...Option) *Navigator {
	n := &Navigator{
		durable: durable,
		mirror:  mirror,
		router:  router,
		loader:  loader,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Navigate rewrites the cookie from the durable credential, reads it back and
// pushes dest in-app when the two agree. On a mismatch the in-app transition
// is abandoned and dest is loaded as a full document instead.
func (n *Navigator) Navigate(ctx context.Context, dest string) (Mode, error) {
	var token, readback string
	if n.mirror != nil {
		token = n.mirror.SyncFromStorage(n.durable)
		readback = n.mirror.Read()
	}

	if token != "" && readback != token {
		n.log.Debug().
			Str("dest", dest).
			Msg("cookie readback mismatch, falling back to full navigation")
		telemetry.GetMetrics().RecordNavigationFallback(ctx)

		return ModeFull, n.load(ctx, dest)
	}

	if err := n.router.Push(ctx, dest); err != nil {
		return ModeInApp, fmt.Errorf("in-app navigation to %s: %w", dest, err)
	}

	return ModeInApp, nil
}

// Redirect always performs a full navigation.
func (n *Navigator) Redirect(ctx context.Context, dest string) error {
	return n.load(ctx, dest)
}

func (n *Navigator) load(ctx context.Context, dest string) error {
	if err := n.loader.Load(ctx, dest); err != nil {
		return fmt.Errorf("full navigation to %s: %w", dest, err)
	}
	return nil
}
