package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/wolfeidau/storefront/cmd/storefront/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		commands.Globals `embed:""`

		Login    commands.LoginCmd    `cmd:"" help:"Log in and land where the storefront sends you"`
		Logout   commands.LogoutCmd   `cmd:"" help:"Log out and forget the stored credential"`
		Whoami   commands.WhoamiCmd   `cmd:"" help:"Show the stored session"`
		Open     commands.OpenCmd     `cmd:"" help:"Open a storefront page"`
		Orders   commands.OrdersCmd   `cmd:"" help:"List your orders"`
		Products commands.ProductsCmd `cmd:"" help:"List products"`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("storefront"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	cli.Globals.Version = version
	err := cmd.Run(&cli.Globals)
	cmd.FatalIfErrorf(err)
}
