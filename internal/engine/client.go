package engine

import (
	"context"
	"errors"

	"github.com/forgecart/storefront/internal/domain"
)

var (
	// ErrLoginFailed indicates the engine rejected the supplied credentials.
	ErrLoginFailed = errors.New("engine: login failed")
	// ErrUnavailable indicates the engine could not be reached or timed out.
	ErrUnavailable = errors.New("engine: unavailable")
	// ErrCustomerNotFound indicates the administrative customer record does not exist.
	ErrCustomerNotFound = errors.New("engine: customer not found")
)

// LoginResult is the engine's answer to a successful authentication.
type LoginResult struct {
	SessionToken string
	CustomerID   int
}

// Client is the capability interface over the commerce engine. All
// implementations must bound every call; the HTTP client applies the
// configured per-call timeout and treats expiry as an engine failure.
type Client interface {
	// Login performs a full credential login against the given store.
	Login(ctx context.Context, storeID, username, password string) (LoginResult, error)
	// LoginByCustomerID performs a privileged re-login without a password
	// check; the caller vouches that identity was verified upstream.
	LoginByCustomerID(ctx context.Context, storeID string, customerID int) (LoginResult, error)
	// Logout terminates the engine-side session.
	Logout(ctx context.Context, storeID, sessionToken string) error

	// BasketItems returns the basket lines held by the engine session.
	BasketItems(ctx context.Context, storeID, sessionToken string) ([]domain.BasketLine, error)
	// AddBasketItem adds a product to the engine-side basket.
	AddBasketItem(ctx context.Context, storeID, sessionToken string, productID string, quantity int, options []*domain.Option) ([]domain.BasketLine, error)
	// UpdateBasketItem changes the quantity of an existing basket line.
	UpdateBasketItem(ctx context.Context, storeID, sessionToken, lineID string, quantity int) ([]domain.BasketLine, error)
	// RemoveBasketItem deletes a basket line.
	RemoveBasketItem(ctx context.Context, storeID, sessionToken, lineID string) ([]domain.BasketLine, error)
	// RefreshBasketStock updates quantity-in-stock and price fields from
	// live stock and pricing data.
	RefreshBasketStock(ctx context.Context, storeID string, lines []domain.BasketLine) ([]domain.BasketLine, error)

	// CreateOrder asks the engine to build a priced order from the basket
	// lines. A nil order with a nil error means the engine declined to
	// create one; callers degrade rather than fail.
	CreateOrder(ctx context.Context, storeID, sessionToken string, lines []domain.BasketLine, opts domain.CreateOrderOptions, languageID int) (*domain.EphemeralOrder, error)
	// ShippingQuotes returns the engine's ordered shipping quotes for the order.
	ShippingQuotes(ctx context.Context, storeID string, order *domain.EphemeralOrder) ([]domain.ShippingQuote, error)
	// RecomputeTotals recalculates the order's totals in place.
	RecomputeTotals(ctx context.Context, storeID string, order *domain.EphemeralOrder) error

	// CustomerForID looks up the administrative customer record used for
	// the store-switch group gate.
	CustomerForID(ctx context.Context, customerID int) (*domain.AdminCustomer, error)
}
