// Package login runs the client side login and logout flows.
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/storefront/internal/client"
	"github.com/wolfeidau/storefront/internal/routes"
	"github.com/wolfeidau/storefront/internal/session"
	"github.com/wolfeidau/storefront/internal/storage"
	"github.com/wolfeidau/storefront/internal/telemetry"
)

// DefaultSettleDelay gives the cookie mirror time to land before the full
// navigation after login.
const DefaultSettleDelay = 100 * time.Millisecond

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnavailable        = errors.New("login is unavailable, please try again")
)

// Authenticator is the part of the API the flow needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
	Logout(ctx context.Context) error
}

// Redirector performs a full navigation.
type Redirector interface {
	Redirect(ctx context.Context, dest string) error
}

// Flow logs users in and out.
type Flow struct {
	api      Authenticator
	sessions *session.Store
	// session scoped slots, not the durable ones
	slots  storage.Storage
	nav    Redirector
	settle time.Duration
	log    zerolog.Logger
}

// Option configures a Flow.
type Option func(*Flow)

func WithLogger(log zerolog.Logger) Option {
	return func(f *Flow) {
		f.log = log
	}
}

// WithSettleDelay sets the wait between storing the session and navigating.
func WithSettleDelay(d time.Duration) Option {
	return func(f *Flow) {
		f.settle = d
	}
}

func New(api Authenticator, sessions *session.Store, slots storage.Storage, nav Redirector, opts ...Option) *Flow {
	f := &Flow{
		api:      api,
		sessions: sessions,
		slots:    slots,
		nav:      nav,
		settle:   DefaultSettleDelay,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Login authenticates, stores the session and performs a full navigation to
// the post login destination, which it returns. redirectParam is the value of
// the login page's redirect parameter, if any.
func (f *Flow) Login(ctx context.Context, email, password, redirectParam string) (string, error) {
	metrics := telemetry.GetMetrics()

	res, err := f.api.Login(ctx, email, password)
	if err != nil {
		err = classify(err)
		outcome := "unavailable"
		if errors.Is(err, ErrInvalidCredentials) {
			outcome = "rejected"
		}
		metrics.RecordLogin(ctx, outcome)
		f.log.Info().Err(err).Str("email", email).Msg("login failed")
		return "", err
	}

	if err := f.sessions.SetSession(res.User, res.Token); err != nil {
		metrics.RecordLogin(ctx, "unavailable")
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	metrics.RecordLogin(ctx, "success")

	saved := ""
	if f.slots != nil {
		saved, _ = storage.Take(f.slots, storage.KeyRedirectAfterLogin)
	}
	dest := routes.PostLoginDestination(res.User, redirectParam, saved)

	f.log.Info().
		Str("user_id", res.User.ID).
		Str("role", res.User.Role).
		Str("dest", dest).
		Msg("logged in")

	if err := wait(ctx, f.settle); err != nil {
		return "", err
	}

	if err := f.nav.Redirect(ctx, dest); err != nil {
		return dest, err
	}

	return dest, nil
}

// Logout revokes the credential on the API when possible, clears every copy
// of the session and navigates to the login page.
func (f *Flow) Logout(ctx context.Context) error {
	if f.sessions.IsAuthenticated() {
		if err := f.api.Logout(ctx); err != nil {
			f.log.Debug().Err(err).Msg("api logout failed, clearing local session anyway")
		}
	}

	f.sessions.ClearSession()
	telemetry.GetMetrics().RecordSessionCleared(ctx, "logout")

	return f.nav.Redirect(ctx, routes.Login)
}

// RememberDestination saves where a user was headed before being sent to the
// login page. Public paths are not remembered.
func RememberDestination(slots storage.Storage, target string) {
	if slots == nil {
		return
	}
	p, ok := routes.SafeReturnPath(target)
	if !ok || !routes.IsProtected(p) {
		return
	}
	_ = slots.Set(storage.KeyRedirectAfterLogin, p)
}

func classify(err error) error {
	switch client.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusBadRequest, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
