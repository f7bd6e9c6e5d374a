package models

import "time"

// Product types offered by the delivery service.
const (
	ProductFuel     = "fuel"
	ProductEVCharge = "ev_charge"
)

// Order states reported by the external API.
const (
	OrderPending   = "pending"
	OrderScheduled = "scheduled"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Product is a deliverable item: a fuel grade or a mobile charging package.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Unit     string  `json:"unit,omitempty"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
}

// Address is a delivery location saved by a customer.
type Address struct {
	ID       string `json:"id,omitempty"`
	Label    string `json:"label,omitempty"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Postcode string `json:"postcode,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// OrderItem is a single line on an order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

// Order is a delivery request.
type Order struct {
	ID        string      `json:"id,omitempty"`
	UserID    string      `json:"userId,omitempty"`
	AddressID string      `json:"addressId"`
	Items     []OrderItem `json:"items"`
	Status    string      `json:"status,omitempty"`
	Total     float64     `json:"total,omitempty"`
	CreatedAt time.Time   `json:"createdAt,omitzero"`
}

// PaymentIntent is the handle the payment provider needs to capture a payment.
type PaymentIntent struct {
	ID           string  `json:"id"`
	OrderID      string  `json:"orderId"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency,omitempty"`
	ClientSecret string  `json:"clientSecret"`
}
