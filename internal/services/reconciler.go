package services

import (
	"context"
	"errors"

	domain "github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/engine"
	"github.com/forgecart/storefront/internal/platform/auth"
)

// AuthState classifies the outcome of reconciling host identity with the
// engine session.
type AuthState int

const (
	// StateUnauthenticated means the request proceeds as a guest.
	StateUnauthenticated AuthState = iota
	// StateAuthenticated means the engine session is logged in for the
	// request's principal.
	StateAuthenticated
	// StateLoggedOutRedirect means reconciliation failed in a way that
	// requires forcing the host app's logout flow.
	StateLoggedOutRedirect
)

// ReconcileResult is the decision produced for one request.
type ReconcileResult struct {
	State      AuthState
	CustomerID int
	// ClearSecurityContext asks the caller to drop the host identity
	// assertion for this browser, without redirecting.
	ClearSecurityContext bool
}

var errReconcilerLookupRequired = errors.New("reconciler: customer lookup is required")

// ReconcilerDeps wires the dependencies for the auth reconciler.
type ReconcilerDeps struct {
	Customers AdminCustomerLookup
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

// Reconciler aligns the engine session's login state with the identity the
// host application asserted for the request.
type Reconciler struct {
	customers AdminCustomerLookup
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewReconciler constructs a Reconciler enforcing dependency validation.
func NewReconciler(deps ReconcilerDeps) (*Reconciler, error) {
	if deps.Customers == nil {
		return nil, errReconcilerLookupRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Reconciler{customers: deps.Customers, logger: logger}, nil
}

// Reconcile drives the engine session toward the asserted identity.
//
// With no assertion the engine session is logged out and the request runs as
// a guest. A remember-me assertion whose customer id matches the engine
// session triggers a privileged re-login to refresh the engine's state. A
// fresh assertion logs in with the asserted credential, gated on a group
// check when the session just switched stores while still a guest. Any
// engine login failure forces the logged-out redirect so the host and the
// engine never disagree about who is signed in.
func (r *Reconciler) Reconcile(ctx context.Context, sess *engine.Session, assertion *auth.Assertion, switched bool, cfg domain.StoreConfig) ReconcileResult {
	if assertion == nil || assertion.Principal == "" {
		if err := sess.Logout(ctx); err != nil {
			r.logger(ctx, "reconcile.logout_failed", map[string]any{
				"storeId": sess.StoreID(),
				"error":   err.Error(),
			})
		}
		return ReconcileResult{State: StateUnauthenticated, CustomerID: domain.GuestCustomerID}
	}

	engineCustomerID := sess.CustomerID()

	if assertion.RememberMe {
		if assertion.CustomerID == engineCustomerID {
			if err := sess.LoginByCustomerID(ctx, assertion.CustomerID); err != nil {
				r.logger(ctx, "reconcile.remembered_login_failed", map[string]any{
					"storeId":    sess.StoreID(),
					"customerId": assertion.CustomerID,
					"error":      err.Error(),
				})
				return ReconcileResult{State: StateLoggedOutRedirect, CustomerID: domain.GuestCustomerID}
			}
			return ReconcileResult{State: StateAuthenticated, CustomerID: sess.CustomerID()}
		}

		// Remembered identity no longer matches the engine session.
		// Leave both sides untouched rather than guessing which one
		// is right.
		r.logger(ctx, "reconcile.remembered_id_mismatch", map[string]any{
			"storeId":          sess.StoreID(),
			"assertedId":       assertion.CustomerID,
			"engineCustomerId": engineCustomerID,
		})
		if engineCustomerID > 0 {
			return ReconcileResult{State: StateAuthenticated, CustomerID: engineCustomerID}
		}
		return ReconcileResult{State: StateUnauthenticated, CustomerID: domain.GuestCustomerID}
	}

	autoLogin := true
	if engineCustomerID == domain.GuestCustomerID && switched {
		cust, err := r.customers.CustomerForID(ctx, assertion.CustomerID)
		if err != nil {
			// Fail closed: an unverifiable identity does not get a
			// session in the new store.
			r.logger(ctx, "reconcile.group_lookup_failed", map[string]any{
				"storeId":    sess.StoreID(),
				"customerId": assertion.CustomerID,
				"error":      err.Error(),
			})
			autoLogin = false
		} else {
			autoLogin = cust != nil && cust.GroupID > 0 && cfg.AcceptsGroup(cust.GroupID)
			if !autoLogin {
				r.logger(ctx, "reconcile.group_rejected", map[string]any{
					"storeId":    cfg.ID,
					"customerId": assertion.CustomerID,
				})
			}
		}
	}

	if !autoLogin {
		return ReconcileResult{
			State:                StateUnauthenticated,
			CustomerID:           domain.GuestCustomerID,
			ClearSecurityContext: true,
		}
	}

	if err := sess.Login(ctx, assertion.Principal, assertion.Credential); err != nil {
		r.logger(ctx, "reconcile.login_failed", map[string]any{
			"storeId":   sess.StoreID(),
			"principal": assertion.Principal,
			"error":     err.Error(),
		})
		return ReconcileResult{State: StateLoggedOutRedirect, CustomerID: domain.GuestCustomerID}
	}

	return ReconcileResult{State: StateAuthenticated, CustomerID: sess.CustomerID()}
}
