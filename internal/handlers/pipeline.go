package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domain "github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/engine"
	"github.com/forgecart/storefront/internal/platform/auth"
	"github.com/forgecart/storefront/internal/platform/httpx"
	"github.com/forgecart/storefront/internal/platform/requestctx"
	"github.com/forgecart/storefront/internal/services"
)

type pipelineContextKey string

const requestStateContextKey pipelineContextKey = "github.com/forgecart/storefront/internal/handlers/state"

// requestState is the per-request outcome of the session pipeline: the engine
// session bound to the request's store and the reconciled customer identity.
type requestState struct {
	Session    *engine.Session
	Store      domain.StoreConfig
	CustomerID int
}

func withRequestState(ctx context.Context, state *requestState) context.Context {
	return context.WithValue(ctx, requestStateContextKey, state)
}

func stateFromContext(ctx context.Context) (*requestState, bool) {
	state, ok := ctx.Value(requestStateContextKey).(*requestState)
	if !ok || state == nil || state.Session == nil {
		return nil, false
	}
	return state, true
}

// PipelineDeps wires the dependencies for the session pipeline middleware.
type PipelineDeps struct {
	Sessions   *services.SessionStore
	Stores     services.StoreConfigResolver
	Reconciler *services.Reconciler
	Logout     *services.LogoutRedirector

	SessionCookie  string
	IdentityCookie string
}

// Pipeline is the per-request middleware that resolves the active store,
// binds the browser to an engine session and reconciles the host-asserted
// identity with the engine before any storefront handler runs.
type Pipeline struct {
	sessions   *services.SessionStore
	stores     services.StoreConfigResolver
	reconciler *services.Reconciler
	logout     *services.LogoutRedirector

	sessionCookie  string
	identityCookie string
}

// NewPipeline constructs the session pipeline enforcing dependency validation.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.Sessions == nil {
		return nil, errors.New("pipeline: session store is required")
	}
	if deps.Stores == nil {
		return nil, errors.New("pipeline: store resolver is required")
	}
	if deps.Reconciler == nil {
		return nil, errors.New("pipeline: reconciler is required")
	}
	if deps.Logout == nil {
		return nil, errors.New("pipeline: logout redirector is required")
	}

	sessionCookie := strings.TrimSpace(deps.SessionCookie)
	if sessionCookie == "" {
		sessionCookie = "sf_session"
	}

	return &Pipeline{
		sessions:       deps.Sessions,
		stores:         deps.Stores,
		reconciler:     deps.Reconciler,
		logout:         deps.Logout,
		sessionCookie:  sessionCookie,
		identityCookie: strings.TrimSpace(deps.IdentityCookie),
	}, nil
}

// Middleware runs the pipeline for every request in its group.
func (p *Pipeline) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			browserSessionID := p.browserSessionID(w, r)
			cfg := p.stores.Resolve(r)

			sess, switched, err := p.sessions.GetOrCreate(ctx, browserSessionID, cfg)
			if err != nil {
				requestctx.Logger(ctx).Error("engine session unavailable",
					zap.String("storeId", cfg.ID),
					zap.Error(err),
				)
				httpx.WriteError(ctx, w, httpx.NewError("engine_unavailable", "commerce engine is unavailable", http.StatusServiceUnavailable))
				return
			}

			assertion, _ := auth.AssertionFromContext(ctx)
			result := p.reconciler.Reconcile(ctx, sess, assertion, switched, cfg)

			if result.ClearSecurityContext {
				auth.ClearSecurityContext(w, p.identityCookie)
			}

			if result.State == services.StateLoggedOutRedirect {
				auth.ClearSecurityContext(w, p.identityCookie)
				p.logout.Redirect(w, r)
				return
			}

			state := &requestState{
				Session:    sess,
				Store:      cfg,
				CustomerID: result.CustomerID,
			}
			next.ServeHTTP(w, r.WithContext(withRequestState(ctx, state)))
		})
	}
}

// browserSessionID returns the visitor's session cookie, minting one when the
// browser arrives without it.
func (p *Pipeline) browserSessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(p.sessionCookie); err == nil {
		if id := strings.TrimSpace(cookie.Value); id != "" {
			return id
		}
	}

	id := ulid.Make().String()
	http.SetCookie(w, &http.Cookie{
		Name:     p.sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
