package services

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/forgecart/storefront/internal/platform/requestctx"
)

const logoutPath = "/logout"

// LogoutRedirector sends the browser to the host application's logout flow.
// Reconciliation failures end here so the host identity is torn down rather
// than left disagreeing with the engine.
type LogoutRedirector struct {
	mount string
}

// NewLogoutRedirector constructs a redirector. The mount prefix scopes the
// logout link when the storefront is served under a sub-path; empty means
// the site root.
func NewLogoutRedirector(mount string) *LogoutRedirector {
	return &LogoutRedirector{mount: mount}
}

// Redirect issues a see-other redirect to the logout link. A malformed mount
// falls back to the bare logout path; losing the prefix is better than
// failing the logout.
func (l *LogoutRedirector) Redirect(w http.ResponseWriter, r *http.Request) {
	target := logoutPath
	if l.mount != "" {
		joined, err := url.JoinPath(l.mount, logoutPath)
		if err != nil {
			requestctx.Logger(r.Context()).Warn("logout link build failed",
				zap.String("mount", l.mount),
				zap.Error(err),
			)
		} else {
			target = joined
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
