package domain

import (
	"strings"
	"time"
)

// GuestCustomerID marks an engine session with no authenticated customer.
const GuestCustomerID = -1

// StoreConfig is the immutable per-request snapshot of the active store.
// It is re-resolved on every request; display preferences may change even
// when the store id stays the same.
type StoreConfig struct {
	ID                  string
	Name                string
	Currency            string
	LanguageID          int
	DisplayPriceWithTax bool
	AcceptedGroups      []int
	DefaultCustomerID   int
}

// AcceptsGroup reports whether the store's security policy accepts the
// supplied customer group id.
func (c StoreConfig) AcceptsGroup(groupID int) bool {
	for _, g := range c.AcceptedGroups {
		if g == groupID {
			return true
		}
	}
	return false
}

// SameStore reports whether two store ids identify the same store.
// Store ids are compared case-insensitively, matching the engine's behaviour.
func SameStore(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// OptionKind tags a basket line option with its rendering behaviour.
type OptionKind int

const (
	// OptionFixed renders as "<name> <value>".
	OptionFixed OptionKind = iota
	// OptionVariableQuantity renders as "<name> <quantity> <value>".
	OptionVariableQuantity
)

// Option is a selected product option on a basket line.
type Option struct {
	Name     string
	Value    string
	Kind     OptionKind
	Quantity int
}

// ProductRef identifies the product behind a basket line for display purposes.
type ProductRef struct {
	ID    string
	Name  string
	Image string
}

// BasketLine is a single line in the customer's engine-side basket.
// Options is positional: slots may be nil but are never omitted, so the
// slice stays index-aligned with the engine's option identifiers.
type BasketLine struct {
	ID              string
	Product         *ProductRef
	Quantity        int
	QuantityInStock int
	PriceExTax      float64
	PriceIncTax     float64
	Options         []*Option
}

// CartItemView is the display-ready projection of a basket line.
// Consumers must key by LineID: lines without a product are skipped during
// projection, so positions do not map 1:1 onto the basket.
type CartItemView struct {
	LineID          string   `json:"lineId"`
	ProductID       string   `json:"productId"`
	Name            string   `json:"name"`
	Image           string   `json:"image,omitempty"`
	Quantity        int      `json:"quantity"`
	QuantityInStock int      `json:"quantityInStock"`
	TotalPrice      string   `json:"totalPrice"`
	Options         []string `json:"options,omitempty"`
}

// ShippingQuote is a priced shipping option returned by the engine.
type ShippingQuote struct {
	Code        string
	Description string
	Cost        float64
}

// OrderTotals carries the recomputed totals of an ephemeral order.
type OrderTotals struct {
	Subtotal       float64
	Tax            float64
	Shipping       float64
	Discount       float64
	GiftCertAmount float64
	PointsValue    float64
	Total          float64
}

// EphemeralOrder is a preview-only order computed to drive the cart screen.
// It is never persisted by the engine; each totals computation builds a
// fresh one and installs it as the session's checkout order.
type EphemeralOrder struct {
	ID             string
	CustomerID     int
	Lines          []BasketLine
	CouponCode     string
	GiftCertCode   string
	PointsRedeemed int
	ShippingQuote  *ShippingQuote
	Totals         OrderTotals
	CreatedAt      time.Time
}

// CreateOrderOptions mirrors the engine's order-creation options. The
// product-fetch fields carry forward the session's active pricing context so
// the preview is computed under the same rules as the rest of the session.
type CreateOrderOptions struct {
	UseDefaultCustomer  bool
	PriceDate           *time.Time
	CatalogID           string
	UseExternalPrice    bool
	UseExternalQuantity bool
}

// FetchProductOptions is the session's active product pricing context.
type FetchProductOptions struct {
	PriceDate           *time.Time
	CatalogID           string
	UseExternalPrice    bool
	UseExternalQuantity bool
}

// AdminCustomer is the administrative view of a customer used for the
// store-switch group gate.
type AdminCustomer struct {
	ID      int
	GroupID int
}
