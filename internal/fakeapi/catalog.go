package fakeapi

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfeidau/storefront/internal/models"
)

var (
	errNotFound   = errors.New("not found")
	errValidation = errors.New("validation failed")
)

var defaultProducts = []models.Product{
	{ID: "ulp91", Name: "Unleaded 91", Type: models.ProductFuel, Unit: "L", Price: 1.89, Currency: "AUD"},
	{ID: "ulp98", Name: "Premium 98", Type: models.ProductFuel, Unit: "L", Price: 2.15, Currency: "AUD"},
	{ID: "diesel", Name: "Diesel", Type: models.ProductFuel, Unit: "L", Price: 1.99, Currency: "AUD"},
	{ID: "ev-50", Name: "EV charge 50 kWh", Type: models.ProductEVCharge, Unit: "kWh", Price: 0.55, Currency: "AUD"},
}

// catalog holds products, addresses and orders in memory.
type catalog struct {
	mu        sync.RWMutex
	products  []models.Product
	addresses map[string][]models.Address
	orders    []models.Order
}

func newCatalog() *catalog {
	return &catalog{
		products:  slices.Clone(defaultProducts),
		addresses: map[string][]models.Address{},
	}
}

func (c *catalog) listProducts() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

func (c *catalog) product(id string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (c *catalog) listAddresses(userID string) []models.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.addresses[userID])
}

func (c *catalog) addAddress(userID string, a models.Address) (models.Address, error) {
	if a.Street == "" || a.City == "" {
		return models.Address{}, errValidation
	}

	a.ID = uuid.NewString()

	c.mu.Lock()
	c.addresses[userID] = append(c.addresses[userID], a)
	c.mu.Unlock()

	return a, nil
}

func (c *catalog) hasAddress(userID, addressID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.ContainsFunc(c.addresses[userID], func(a models.Address) bool {
		return a.ID == addressID
	})
}

// listOrders returns the orders of userID, or every order when all is set.
func (c *catalog) listOrders(userID string, all bool) []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	orders := []models.Order{}
	for _, o := range c.orders {
		if all || o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders
}

func (c *catalog) order(id, userID string, all bool) (models.Order, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, o := range c.orders {
		if o.ID == id && (all || o.UserID == userID) {
			return o, nil
		}
	}
	return models.Order{}, errNotFound
}

func (c *catalog) placeOrder(userID string, o models.Order) (models.Order, error) {
	if len(o.Items) == 0 || !c.hasAddress(userID, o.AddressID) {
		return models.Order{}, errValidation
	}

	var total float64
	for _, item := range o.Items {
		p, ok := c.product(item.ProductID)
		if !ok || item.Quantity <= 0 {
			return models.Order{}, errValidation
		}
		total += p.Price * item.Quantity
	}

	o.ID = uuid.NewString()
	o.UserID = userID
	o.Status = models.OrderPending
	o.Total = total
	o.CreatedAt = time.Now().UTC()

	c.mu.Lock()
	c.orders = append(c.orders, o)
	c.mu.Unlock()

	return o, nil
}
