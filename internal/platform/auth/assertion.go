package auth

import (
	"context"

	"github.com/forgecart/storefront/internal/domain"
)

// Assertion is the host framework's per-request claim about who the visitor
// is. It is constructed once per request from the host-issued identity token
// and is read-only to the rest of the pipeline. The credential material is
// opaque; it is only ever replayed to the engine's login call.
type Assertion struct {
	Principal  string
	Credential string
	CustomerID int
	RememberMe bool
}

// Anonymous reports whether the assertion carries no usable identity.
func (a *Assertion) Anonymous() bool {
	return a == nil || a.Principal == "" || a.CustomerID == domain.GuestCustomerID
}

type contextKey string

const assertionContextKey contextKey = "github.com/forgecart/storefront/internal/platform/auth/assertion"

// WithAssertion stores the identity assertion within the context for downstream handlers.
func WithAssertion(ctx context.Context, assertion *Assertion) context.Context {
	return context.WithValue(ctx, assertionContextKey, assertion)
}

// AssertionFromContext retrieves the assertion previously stored in context.
// The second return is false when the visitor has no host-level identity.
func AssertionFromContext(ctx context.Context) (*Assertion, bool) {
	assertion, ok := ctx.Value(assertionContextKey).(*Assertion)
	if !ok || assertion == nil {
		return nil, false
	}
	return assertion, true
}
