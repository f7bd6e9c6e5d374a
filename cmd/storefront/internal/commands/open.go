package commands

import (
	"context"
	"fmt"
)

type OpenCmd struct {
	Path string `arg:"" help:"Page to open, e.g. /orders"`
}

func (c *OpenCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.mount(ctx, c.Path)
	if err != nil {
		return err
	}
	defer a.Close()

	page := a.Page()
	fmt.Printf("Requested: %s\n", c.Path)
	fmt.Printf("Location:  %s\n", page.Location)
	fmt.Printf("Status:    %d\n", page.Status)
	return nil
}
