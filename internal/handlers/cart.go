package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/engine"
	"github.com/forgecart/storefront/internal/platform/httpx"
	"github.com/forgecart/storefront/internal/services"
)

const maxCartBodySize = 16 * 1024

var errBodyTooLarge = errors.New("request body too large")

// CartHandlers exposes the cart screen endpoints. Every route runs behind
// the session pipeline, so handlers read the bound engine session and the
// reconciled identity from the request state.
type CartHandlers struct {
	projector *services.Projector
	totals    *services.TotalsComputer
}

// NewCartHandlers constructs the cart endpoints.
func NewCartHandlers(projector *services.Projector, totals *services.TotalsComputer) *CartHandlers {
	return &CartHandlers{
		projector: projector,
		totals:    totals,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Post("/items", h.addItem)
	r.Put("/items/{lineID}", h.updateItem)
	r.Delete("/items/{lineID}", h.removeItem)
}

type cartResponse struct {
	Items        []domain.CartItemView `json:"items"`
	Totals       *totalsPayload        `json:"totals,omitempty"`
	Shipping     *shippingPayload      `json:"shipping,omitempty"`
	CouponCode   string                `json:"couponCode,omitempty"`
	GiftCertCode string                `json:"giftCertCode,omitempty"`
	RewardPoints int                   `json:"rewardPoints,omitempty"`
}

type totalsPayload struct {
	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	Shipping       float64 `json:"shipping"`
	Discount       float64 `json:"discount"`
	GiftCertAmount float64 `json:"giftCertAmount"`
	PointsValue    float64 `json:"pointsValue"`
	Total          float64 `json:"total"`
}

type shippingPayload struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, ok := stateFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("session_unavailable", "no engine session for request", http.StatusServiceUnavailable))
		return
	}

	lines, err := state.Session.BasketItems(ctx)
	if err != nil {
		h.writeEngineError(ctx, w, err)
		return
	}

	h.renderCart(ctx, w, state, lines)
}

type addItemRequest struct {
	ProductID string              `json:"productId"`
	Quantity  int                 `json:"quantity"`
	Options   []cartOptionPayload `json:"options,omitempty"`
}

type cartOptionPayload struct {
	Name             string `json:"name"`
	Value            string `json:"value"`
	Quantity         int    `json:"quantity,omitempty"`
	VariableQuantity bool   `json:"variableQuantity,omitempty"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, ok := stateFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("session_unavailable", "no engine session for request", http.StatusServiceUnavailable))
		return
	}

	var req addItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "productId is required", http.StatusBadRequest))
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	sess := state.Session
	lines, err := sess.Client().AddBasketItem(ctx, sess.StoreID(), sess.SessionToken(), req.ProductID, req.Quantity, decodeOptions(req.Options))
	if err != nil {
		h.writeEngineError(ctx, w, err)
		return
	}

	h.renderCart(ctx, w, state, lines)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, ok := stateFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("session_unavailable", "no engine session for request", http.StatusServiceUnavailable))
		return
	}

	lineID := strings.TrimSpace(chi.URLParam(r, "lineID"))
	if lineID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "line id is required", http.StatusBadRequest))
		return
	}

	var req updateItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if req.Quantity <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity must be positive", http.StatusBadRequest))
		return
	}

	sess := state.Session
	lines, err := sess.Client().UpdateBasketItem(ctx, sess.StoreID(), sess.SessionToken(), lineID, req.Quantity)
	if err != nil {
		h.writeEngineError(ctx, w, err)
		return
	}

	h.renderCart(ctx, w, state, lines)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, ok := stateFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("session_unavailable", "no engine session for request", http.StatusServiceUnavailable))
		return
	}

	lineID := strings.TrimSpace(chi.URLParam(r, "lineID"))
	if lineID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "line id is required", http.StatusBadRequest))
		return
	}

	sess := state.Session
	lines, err := sess.Client().RemoveBasketItem(ctx, sess.StoreID(), sess.SessionToken(), lineID)
	if err != nil {
		h.writeEngineError(ctx, w, err)
		return
	}

	h.renderCart(ctx, w, state, lines)
}

// renderCart projects the basket lines and computes the ephemeral preview
// order. A nil order renders a cart without totals, never an error page.
// Promotion state comes from the session, not the order, so a declined
// preview still shows the visitor's saved coupon, gift certificate, and
// reward points.
func (h *CartHandlers) renderCart(ctx context.Context, w http.ResponseWriter, state *requestState, lines []domain.BasketLine) {
	items := h.projector.Project(ctx, state.Session, lines, state.Store)
	order := h.totals.ComputeEphemeralOrder(ctx, state.Session, state.CustomerID, lines, state.Store)

	resp := cartResponse{
		Items:        items,
		CouponCode:   state.Session.CouponCode(),
		GiftCertCode: state.Session.GiftCertCode(),
		RewardPoints: state.Session.RewardPoints(),
	}
	if order != nil {
		resp.Totals = &totalsPayload{
			Subtotal:       order.Totals.Subtotal,
			Tax:            order.Totals.Tax,
			Shipping:       order.Totals.Shipping,
			Discount:       order.Totals.Discount,
			GiftCertAmount: order.Totals.GiftCertAmount,
			PointsValue:    order.Totals.PointsValue,
			Total:          order.Totals.Total,
		}
		if order.ShippingQuote != nil {
			resp.Shipping = &shippingPayload{
				Code:        order.ShippingQuote.Code,
				Description: order.ShippingQuote.Description,
				Cost:        order.ShippingQuote.Cost,
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CartHandlers) writeEngineError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("engine_unavailable", "commerce engine is unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, engine.ErrLoginFailed):
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "engine session is not authenticated", http.StatusUnauthorized))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("engine_error", "commerce engine request failed", http.StatusBadGateway))
	}
}

func decodeOptions(payload []cartOptionPayload) []*domain.Option {
	if len(payload) == 0 {
		return nil
	}
	options := make([]*domain.Option, len(payload))
	for i, opt := range payload {
		kind := domain.OptionFixed
		if opt.VariableQuantity {
			kind = domain.OptionVariableQuantity
		}
		options[i] = &domain.Option{
			Name:     strings.TrimSpace(opt.Name),
			Value:    strings.TrimSpace(opt.Value),
			Kind:     kind,
			Quantity: opt.Quantity,
		}
	}
	return options
}

func decodeJSONBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCartBodySize+1))
	if err != nil {
		return err
	}
	if len(body) > maxCartBodySize {
		return errBodyTooLarge
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	return json.Unmarshal(body, dst)
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
}
