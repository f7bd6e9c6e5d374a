package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/wolfeidau/storefront/internal/models"
)

// ListOrders returns the orders visible to the current session.
func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders"}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/" + url.PathEscape(id)}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder places an order and returns it as stored by the API.
func (c *Client) CreateOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	var created models.Order
	if err := c.do(ctx, request{method: http.MethodPost, path: "/orders", body: order}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListProducts returns the catalog. Responses are cached as the API allows.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products", cached: true}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) ListAddresses(ctx context.Context) ([]models.Address, error) {
	var addresses []models.Address
	if err := c.do(ctx, request{method: http.MethodGet, path: "/addresses"}, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (c *Client) CreateAddress(ctx context.Context, address models.Address) (*models.Address, error) {
	var created models.Address
	if err := c.do(ctx, request{method: http.MethodPost, path: "/addresses", body: address}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreatePaymentIntent starts a payment for an order.
func (c *Client) CreatePaymentIntent(ctx context.Context, orderID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	body := struct {
		OrderID string `json:"orderId"`
	}{OrderID: orderID}

	if err := c.do(ctx, request{method: http.MethodPost, path: "/payments/intents", body: body}, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}
