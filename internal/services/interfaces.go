package services

import (
	"context"
	"net/http"

	domain "github.com/forgecart/storefront/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	StoreConfig    = domain.StoreConfig
	BasketLine     = domain.BasketLine
	CartItemView   = domain.CartItemView
	EphemeralOrder = domain.EphemeralOrder
	ShippingQuote  = domain.ShippingQuote
	AdminCustomer  = domain.AdminCustomer
)

// StoreConfigResolver returns the active store's configuration for a request.
// It is invoked on every request; implementations must be cheap.
type StoreConfigResolver interface {
	Resolve(r *http.Request) StoreConfig
}

// AdminCustomerLookup retrieves administrative customer records for the
// store-switch group gate. The engine client satisfies this.
type AdminCustomerLookup interface {
	CustomerForID(ctx context.Context, customerID int) (*domain.AdminCustomer, error)
}
