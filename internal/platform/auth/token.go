package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/platform/requestctx"
)

var (
	// ErrTokenInvalid signals that the host identity token failed validation.
	ErrTokenInvalid = errors.New("auth: identity token invalid")
	// ErrTokenExpired signals that the host identity token has expired.
	ErrTokenExpired = errors.New("auth: identity token expired")
)

// assertionClaims is the JWT claim set minted by the host's login module.
type assertionClaims struct {
	jwt.RegisteredClaims

	CustomerID int    `json:"cid"`
	Credential string `json:"cred,omitempty"`
	RememberMe bool   `json:"remember,omitempty"`
}

// Codec signs and verifies host identity assertion tokens.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec constructs a Codec for the shared HMAC signing secret.
func NewCodec(secret string, issuer string) (*Codec, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	return &Codec{secret: []byte(trimmed), issuer: strings.TrimSpace(issuer)}, nil
}

// Sign mints a signed assertion token. Used by the host's login module and by tests.
func (c *Codec) Sign(assertion Assertion, ttl time.Duration) (string, error) {
	if c == nil {
		return "", ErrTokenInvalid
	}
	now := time.Now().UTC()
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   assertion.Principal,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CustomerID: assertion.CustomerID,
		Credential: assertion.Credential,
		RememberMe: assertion.RememberMe,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Parse validates the token and extracts the assertion it carries.
func (c *Codec) Parse(token string) (*Assertion, error) {
	if c == nil || strings.TrimSpace(token) == "" {
		return nil, ErrTokenInvalid
	}

	claims := &assertionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, ErrTokenInvalid
	}

	principal := strings.TrimSpace(claims.Subject)
	if principal == "" {
		return nil, ErrTokenInvalid
	}

	customerID := claims.CustomerID
	if customerID <= 0 {
		customerID = domain.GuestCustomerID
	}

	return &Assertion{
		Principal:  principal,
		Credential: claims.Credential,
		CustomerID: customerID,
		RememberMe: claims.RememberMe,
	}, nil
}

// AssertionMiddleware extracts the host identity assertion from the named
// cookie and stores it on the request context. A missing or invalid token is
// treated as an anonymous visitor, never as an error: the reconciler decides
// what an absent assertion means for the engine session.
func AssertionMiddleware(codec *Codec, cookieName string) func(http.Handler) http.Handler {
	cookieName = strings.TrimSpace(cookieName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if codec == nil || cookieName == "" {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || strings.TrimSpace(cookie.Value) == "" {
				next.ServeHTTP(w, r)
				return
			}

			assertion, err := codec.Parse(cookie.Value)
			if err != nil {
				requestctx.Logger(r.Context()).Debug("identity token rejected", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithAssertion(r.Context(), assertion)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClearSecurityContext expires the host identity cookie, forcing the visitor
// to re-authenticate on a subsequent request. No redirect is issued here.
func ClearSecurityContext(w http.ResponseWriter, cookieName string) {
	cookieName = strings.TrimSpace(cookieName)
	if cookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
