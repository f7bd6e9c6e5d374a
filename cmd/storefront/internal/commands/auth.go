package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/storefront/internal/client"
	"github.com/wolfeidau/storefront/internal/routes"
)

type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Account password" env:"STOREFRONT_PASSWORD" required:""`
	Redirect string `help:"Page to return to after login" default:""`
}

func (c *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.mount(ctx, routes.LoginURL(c.Redirect))
	if err != nil {
		return err
	}
	defer a.Close()

	dest, err := a.Login(ctx, c.Email, c.Password)
	if err != nil {
		return err
	}

	u := a.Session().User
	fmt.Printf("Logged in as %s (%s)\n", u.DisplayName(), u.Role)
	fmt.Printf("Landed on %s\n", dest)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.mount(ctx, routes.Home)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Logout(ctx); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}

type WhoamiCmd struct {
	Verify bool `help:"Check the credential with the API" default:"false"`
}

func (c *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.mount(ctx, routes.Home)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := a.Session()
	if !sess.IsAuthenticated() {
		fmt.Println("Not logged in")
		return nil
	}

	if c.Verify {
		u, err := a.API().Me(ctx)
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Println("Session expired, log in again")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to verify session: %w", err)
		}
		sess.User = u
	}

	if sess.User == nil {
		fmt.Println("Logged in, identity unknown")
		return nil
	}

	fmt.Printf("Name:  %s\n", sess.User.DisplayName())
	fmt.Printf("Email: %s\n", sess.User.Email)
	fmt.Printf("Role:  %s\n", sess.User.Role)
	return nil
}
