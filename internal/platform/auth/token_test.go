package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgecart/storefront/internal/domain"
)

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec("shared-secret", "storefront")
	require.NoError(t, err)

	token, err := codec.Sign(Assertion{
		Principal:  "alice",
		Credential: "engine-credential",
		CustomerID: 42,
		RememberMe: true,
	}, time.Hour)
	require.NoError(t, err)

	assertion, err := codec.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "alice", assertion.Principal)
	require.Equal(t, "engine-credential", assertion.Credential)
	require.Equal(t, 42, assertion.CustomerID)
	require.True(t, assertion.RememberMe)
}

func TestCodecRejectsWrongSecret(t *testing.T) {
	signer, err := NewCodec("secret-a", "storefront")
	require.NoError(t, err)
	verifier, err := NewCodec("secret-b", "storefront")
	require.NoError(t, err)

	token, err := signer.Sign(Assertion{Principal: "alice", CustomerID: 42}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodecRejectsWrongIssuer(t *testing.T) {
	signer, err := NewCodec("shared-secret", "other-app")
	require.NoError(t, err)
	verifier, err := NewCodec("shared-secret", "storefront")
	require.NoError(t, err)

	token, err := signer.Sign(Assertion{Principal: "alice", CustomerID: 42}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodecRejectsExpiredToken(t *testing.T) {
	codec, err := NewCodec("shared-secret", "storefront")
	require.NoError(t, err)

	token, err := codec.Sign(Assertion{Principal: "alice", CustomerID: 42}, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodecNormalisesGuestCustomerID(t *testing.T) {
	codec, err := NewCodec("shared-secret", "storefront")
	require.NoError(t, err)

	token, err := codec.Sign(Assertion{Principal: "alice", CustomerID: 0}, time.Hour)
	require.NoError(t, err)

	assertion, err := codec.Parse(token)
	require.NoError(t, err)
	require.Equal(t, domain.GuestCustomerID, assertion.CustomerID)
}

func TestAssertionMiddlewareStoresAssertion(t *testing.T) {
	codec, err := NewCodec("shared-secret", "storefront")
	require.NoError(t, err)

	token, err := codec.Sign(Assertion{Principal: "alice", CustomerID: 42}, time.Hour)
	require.NoError(t, err)

	var seen *Assertion
	handler := AssertionMiddleware(codec, "sf_identity")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AssertionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sf_identity", Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	require.Equal(t, "alice", seen.Principal)
}

func TestAssertionMiddlewareTreatsInvalidTokenAsAnonymous(t *testing.T) {
	codec, err := NewCodec("shared-secret", "storefront")
	require.NoError(t, err)

	called := false
	handler := AssertionMiddleware(codec, "sf_identity")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := AssertionFromContext(r.Context())
		require.False(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sf_identity", Value: "not-a-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, called)
}

func TestClearSecurityContextExpiresCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	ClearSecurityContext(rr, "sf_identity")

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sf_identity", cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}
