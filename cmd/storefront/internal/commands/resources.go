package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
)

type OrdersCmd struct{}

func (c *OrdersCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.mount(ctx, "/orders")
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.Session().IsAuthenticated() {
		return errors.New("not logged in, run: storefront login <email>")
	}

	orders, err := a.API().ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	if len(orders) == 0 {
		fmt.Println("No orders")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tITEMS\tTOTAL\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\n",
			o.ID, o.Status, len(o.Items), o.Total, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

type ProductsCmd struct{}

func (c *ProductsCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.mount(ctx, "/")
	if err != nil {
		return err
	}
	defer a.Close()

	products, err := a.API().ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tPRICE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f %s/%s\n", p.ID, p.Name, p.Type, p.Price, p.Currency, p.Unit)
	}
	return w.Flush()
}
