package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/forgecart/storefront/internal/domain"
)

// Session is the live engine client state bound to exactly one store. It is
// owned by a browser session and cached per store id; at most one Session per
// (browser session, store id) pair exists at a time. All state mutations go
// through the embedded mutex since concurrent requests from the same browser
// session may share it.
type Session struct {
	client  Client
	storeID string

	mu           sync.Mutex
	token        string
	customerID   int
	languageID   int
	fetchOptions domain.FetchProductOptions

	// Order-manager state persisted across requests within the browser
	// session: the current checkout order plus the promotion inputs the
	// visitor saved earlier.
	checkoutOrder *domain.EphemeralOrder
	couponCode    string
	giftCertCode  string
	rewardPoints  int
}

// NewSession constructs a Session bound to the given store.
func NewSession(client Client, storeID string, languageID int) *Session {
	return &Session{
		client:     client,
		storeID:    strings.TrimSpace(storeID),
		customerID: domain.GuestCustomerID,
		languageID: languageID,
	}
}

// StoreID returns the store this session is bound to. Immutable for the
// session's lifetime; switching stores means switching sessions.
func (s *Session) StoreID() string { return s.storeID }

// Client exposes the engine client backing this session.
func (s *Session) Client() Client { return s.client }

// CustomerID returns the engine-side authenticated customer id, or
// domain.GuestCustomerID when nobody is logged in.
func (s *Session) CustomerID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customerID
}

// SessionToken returns the engine-side session token, empty for guests.
func (s *Session) SessionToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// LanguageID returns the session's active language.
func (s *Session) LanguageID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.languageID
}

// FetchOptions returns the session's active product pricing context.
func (s *Session) FetchOptions() domain.FetchProductOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchOptions
}

// SetFetchOptions replaces the session's product pricing context.
func (s *Session) SetFetchOptions(opts domain.FetchProductOptions) {
	s.mu.Lock()
	s.fetchOptions = opts
	s.mu.Unlock()
}

// Login performs a full credential login, binding the engine session to the
// authenticated customer on success.
func (s *Session) Login(ctx context.Context, username, password string) error {
	result, err := s.client.Login(ctx, s.storeID, username, password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = result.SessionToken
	s.customerID = result.CustomerID
	s.mu.Unlock()
	return nil
}

// LoginByCustomerID performs a privileged re-login with no password check.
func (s *Session) LoginByCustomerID(ctx context.Context, customerID int) error {
	result, err := s.client.LoginByCustomerID(ctx, s.storeID, customerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = result.SessionToken
	s.customerID = result.CustomerID
	s.mu.Unlock()
	return nil
}

// Logout terminates the engine-side session and resets the session to guest
// state. Checkout-order and promotion state is discarded with the identity.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	var err error
	if token != "" {
		err = s.client.Logout(ctx, s.storeID, token)
	}

	s.mu.Lock()
	s.token = ""
	s.customerID = domain.GuestCustomerID
	s.checkoutOrder = nil
	s.couponCode = ""
	s.giftCertCode = ""
	s.rewardPoints = 0
	s.mu.Unlock()
	return err
}

// BasketItems returns the engine-side basket lines for this session.
func (s *Session) BasketItems(ctx context.Context) ([]domain.BasketLine, error) {
	return s.client.BasketItems(ctx, s.storeID, s.SessionToken())
}

// CheckoutOrder returns the session's current checkout order, nil when none.
func (s *Session) CheckoutOrder() *domain.EphemeralOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutOrder
}

// SetCheckoutOrder replaces the session's checkout order. Passing nil clears
// any stale totals from a previous attempt.
func (s *Session) SetCheckoutOrder(order *domain.EphemeralOrder) {
	s.mu.Lock()
	s.checkoutOrder = order
	s.mu.Unlock()
}

// CouponCode returns the coupon code saved earlier in the session.
func (s *Session) CouponCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.couponCode
}

// SetCouponCode stores the coupon code for later totals computations.
func (s *Session) SetCouponCode(code string) {
	s.mu.Lock()
	s.couponCode = strings.TrimSpace(code)
	s.mu.Unlock()
}

// GiftCertCode returns the gift certificate code saved earlier in the session.
func (s *Session) GiftCertCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.giftCertCode
}

// SetGiftCertCode stores the gift certificate code.
func (s *Session) SetGiftCertCode(code string) {
	s.mu.Lock()
	s.giftCertCode = strings.TrimSpace(code)
	s.mu.Unlock()
}

// RewardPoints returns the redeemed reward points saved earlier in the session.
func (s *Session) RewardPoints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewardPoints
}

// SetRewardPoints stores the redeemed reward points.
func (s *Session) SetRewardPoints(points int) {
	s.mu.Lock()
	if points < 0 {
		points = 0
	}
	s.rewardPoints = points
	s.mu.Unlock()
}
