package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/forgecart/storefront/internal/platform/config"
)

const storesCatalogYAML = `
defaultStore: main
stores:
  - id: main
    name: Main Store
    currency: USD
    languageId: 1
    defaultCustomerId: 1
  - id: outlet
    name: Outlet Store
    currency: EUR
    languageId: 2
    displayPriceWithTax: true
    acceptedGroups: [3]
    defaultCustomerId: 1
`

func newStoreRouter(t *testing.T) chi.Router {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stores.yaml")
	if err := os.WriteFile(path, []byte(storesCatalogYAML), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	catalog, err := config.LoadStoreCatalog(path, "")
	if err != nil {
		t.Fatalf("LoadStoreCatalog returned error: %v", err)
	}

	router := chi.NewRouter()
	NewStoreHandlers(catalog).Routes(router)
	return router
}

func TestListStores(t *testing.T) {
	router := newStoreRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Stores []storePayload `json:"stores"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(body.Stores))
	}
	if body.Stores[0].ID != "main" || !body.Stores[0].Default {
		t.Fatalf("unexpected first store: %+v", body.Stores[0])
	}
	if body.Stores[1].ID != "outlet" || body.Stores[1].Default {
		t.Fatalf("unexpected second store: %+v", body.Stores[1])
	}
}

func TestGetStore(t *testing.T) {
	router := newStoreRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outlet", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var store storePayload
	if err := json.Unmarshal(rec.Body.Bytes(), &store); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if store.Currency != "EUR" || store.LanguageID != 2 || !store.DisplayPriceWithTax {
		t.Fatalf("unexpected store payload: %+v", store)
	}
}

func TestGetStoreUnknownID(t *testing.T) {
	router := newStoreRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Error != "store_not_found" {
		t.Fatalf("unexpected error code: %q", envelope.Error)
	}
}
