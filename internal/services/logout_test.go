package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogoutRedirectScopedToMount(t *testing.T) {
	redirector := NewLogoutRedirector("/shop")

	rr := httptest.NewRecorder()
	redirector.Redirect(rr, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/shop/logout" {
		t.Fatalf("expected /shop/logout, got %q", got)
	}
}

func TestLogoutRedirectWithoutMount(t *testing.T) {
	redirector := NewLogoutRedirector("")

	rr := httptest.NewRecorder()
	redirector.Redirect(rr, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/logout" {
		t.Fatalf("expected /logout, got %q", got)
	}
}
