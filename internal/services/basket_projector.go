package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	domain "github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/engine"
)

var errProjectorClientRequired = errors.New("basket projector: engine client is required")

// ProjectorDeps wires the dependencies for the basket projector.
type ProjectorDeps struct {
	Client engine.Client
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// Projector turns raw engine basket lines into display-ready cart items.
type Projector struct {
	client engine.Client
	logger func(ctx context.Context, event string, fields map[string]any)
}

// NewProjector constructs a Projector enforcing dependency validation.
func NewProjector(deps ProjectorDeps) (*Projector, error) {
	if deps.Client == nil {
		return nil, errProjectorClientRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Projector{client: deps.Client, logger: logger}, nil
}

// Project refreshes stock levels and maps basket lines to cart items.
//
// A failed stock refresh is logged and the original lines are used; stale
// stock numbers must not break the cart screen. Lines without a product are
// skipped entirely. Each item's total price follows the store's tax display
// preference and is formatted in the store currency.
func (p *Projector) Project(ctx context.Context, sess *engine.Session, lines []domain.BasketLine, cfg domain.StoreConfig) []domain.CartItemView {
	refreshed, err := p.client.RefreshBasketStock(ctx, sess.StoreID(), lines)
	if err != nil {
		p.logger(ctx, "cart.stock_refresh_failed", map[string]any{
			"storeId": sess.StoreID(),
			"error":   err.Error(),
		})
	} else {
		lines = refreshed
	}

	items := make([]domain.CartItemView, 0, len(lines))
	for _, line := range lines {
		if line.Product == nil {
			continue
		}

		price := line.PriceExTax
		if cfg.DisplayPriceWithTax {
			price = line.PriceIncTax
		}

		items = append(items, domain.CartItemView{
			LineID:          line.ID,
			ProductID:       line.Product.ID,
			Name:            line.Product.Name,
			Image:           line.Product.Image,
			Quantity:        line.Quantity,
			QuantityInStock: line.QuantityInStock,
			TotalPrice:      formatPrice(price, cfg.Currency),
			Options:         formatOptions(line.Options),
		})
	}
	return items
}

// formatOptions renders the positional option slots of a basket line.
// Nil slots become empty strings so indexes stay aligned with the line.
func formatOptions(options []*domain.Option) []string {
	if len(options) == 0 {
		return nil
	}
	out := make([]string, len(options))
	for i, opt := range options {
		if opt == nil {
			continue
		}
		parts := []string{opt.Name}
		if opt.Kind == domain.OptionVariableQuantity {
			parts = append(parts, strconv.Itoa(opt.Quantity))
		}
		parts = append(parts, opt.Value)
		out[i] = strings.Join(parts, " ")
	}
	return out
}

// formatPrice renders an amount in the store currency with the currency's
// conventional precision. An unknown currency code falls back to a plain
// two-decimal rendering rather than failing the projection.
func formatPrice(amount float64, currencyCode string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(currencyCode))
	if err != nil {
		return strconv.FormatFloat(amount, 'f', 2, 64)
	}
	printer := message.NewPrinter(language.English)
	return printer.Sprint(currency.Symbol(unit.Amount(amount)))
}
