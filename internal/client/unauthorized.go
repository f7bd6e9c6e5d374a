package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/storefront/internal/routes"
)

// SessionClearer clears the local session.
type SessionClearer interface {
	ClearSession()
}

// Redirector performs a full navigation.
type Redirector interface {
	Redirect(ctx context.Context, dest string) error
}

// ClearAndRedirect returns the default unauthorized hook. It always clears
// the session, then unless the current route is public sends the user to the
// login page carrying that route as the return path.
func ClearAndRedirect(sessions SessionClearer, current func() string, nav Redirector, log zerolog.Logger) UnauthorizedFunc {
	return func(ctx context.Context) {
		sessions.ClearSession()

		location := ""
		if current != nil {
			location = current()
		}
		if routes.IsPublic(location) || nav == nil {
			return
		}

		dest := routes.LoginURL(location)
		if err := nav.Redirect(ctx, dest); err != nil {
			log.Warn().Err(err).Str("dest", dest).Msg("failed to redirect to login")
		}
	}
}
