package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/engine"
)

var errTotalsClientRequired = errors.New("cart totals: engine client is required")

// TotalsComputerDeps wires the dependencies for the totals computer.
type TotalsComputerDeps struct {
	Client engine.Client
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// TotalsComputer builds the ephemeral preview order behind the cart screen.
type TotalsComputer struct {
	client engine.Client
	logger func(ctx context.Context, event string, fields map[string]any)
}

// NewTotalsComputer constructs a TotalsComputer enforcing dependency validation.
func NewTotalsComputer(deps TotalsComputerDeps) (*TotalsComputer, error) {
	if deps.Client == nil {
		return nil, errTotalsClientRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &TotalsComputer{client: deps.Client, logger: logger}, nil
}

// ComputeEphemeralOrder prices the basket as a throwaway order and installs
// it as the session's checkout order. It returns nil when the engine
// declines to build an order or any step fails; the cart screen renders
// without totals in that case, never an error page.
func (t *TotalsComputer) ComputeEphemeralOrder(ctx context.Context, sess *engine.Session, customerID int, lines []domain.BasketLine, cfg domain.StoreConfig) *domain.EphemeralOrder {
	order, err := t.compute(ctx, sess, customerID, lines, cfg)
	if err != nil {
		t.logger(ctx, "cart.preview_failed", map[string]any{
			"storeId":    sess.StoreID(),
			"customerId": customerID,
			"error":      err.Error(),
		})
		return nil
	}
	return order
}

func (t *TotalsComputer) compute(ctx context.Context, sess *engine.Session, customerID int, lines []domain.BasketLine, cfg domain.StoreConfig) (*domain.EphemeralOrder, error) {
	// Drop any previous preview before building a new one; a stale
	// checkout order must never leak into this computation.
	sess.SetCheckoutOrder(nil)

	if len(lines) == 0 {
		return nil, nil
	}

	fetch := sess.FetchOptions()
	opts := domain.CreateOrderOptions{
		UseDefaultCustomer:  customerID < 0,
		PriceDate:           fetch.PriceDate,
		CatalogID:           fetch.CatalogID,
		UseExternalPrice:    fetch.UseExternalPrice,
		UseExternalQuantity: fetch.UseExternalQuantity,
	}

	token := ""
	if customerID >= 0 {
		token = sess.SessionToken()
	}

	order, err := t.client.CreateOrder(ctx, sess.StoreID(), token, lines, opts, sess.LanguageID())
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if order == nil {
		return nil, nil
	}

	// Guest previews are priced under the store's default customer; the
	// order must still be attributed to that customer, not to id -1.
	if customerID < 0 {
		order.CustomerID = cfg.DefaultCustomerID
	}

	sess.SetCheckoutOrder(order)

	quotes, err := t.client.ShippingQuotes(ctx, sess.StoreID(), order)
	if err != nil {
		return nil, fmt.Errorf("shipping quotes: %w", err)
	}
	if len(quotes) > 0 {
		quote := quotes[0]
		order.ShippingQuote = &quote
	}

	// Promotions live on the session; re-apply them to every fresh
	// preview so the recomputed totals include them.
	order.CouponCode = sess.CouponCode()
	order.GiftCertCode = sess.GiftCertCode()
	order.PointsRedeemed = sess.RewardPoints()

	if err := t.client.RecomputeTotals(ctx, sess.StoreID(), order); err != nil {
		return nil, fmt.Errorf("recompute totals: %w", err)
	}

	return order, nil
}
