package handlers

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/forgecart/storefront/internal/platform/config"
	"github.com/forgecart/storefront/internal/platform/httpx"
)

// StoreHandlers exposes read-only store metadata used by the host app's
// store picker.
type StoreHandlers struct {
	catalog *config.StoreCatalog
}

// NewStoreHandlers constructs the store metadata endpoints.
func NewStoreHandlers(catalog *config.StoreCatalog) *StoreHandlers {
	return &StoreHandlers{catalog: catalog}
}

// Routes wires the /stores endpoints onto the provided router.
func (h *StoreHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listStores)
	r.Get("/{storeID}", h.getStore)
}

type storePayload struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Currency            string `json:"currency"`
	LanguageID          int    `json:"languageId"`
	DisplayPriceWithTax bool   `json:"displayPriceWithTax"`
	Default             bool   `json:"default,omitempty"`
}

func (h *StoreHandlers) listStores(w http.ResponseWriter, r *http.Request) {
	defaultID := h.catalog.Default().ID

	ids := h.catalog.IDs()
	sort.Strings(ids)

	stores := make([]storePayload, 0, len(ids))
	for _, id := range ids {
		cfg, ok := h.catalog.Lookup(id)
		if !ok {
			continue
		}
		stores = append(stores, storePayload{
			ID:                  cfg.ID,
			Name:                cfg.Name,
			Currency:            cfg.Currency,
			LanguageID:          cfg.LanguageID,
			DisplayPriceWithTax: cfg.DisplayPriceWithTax,
			Default:             cfg.ID == defaultID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"stores": stores})
}

func (h *StoreHandlers) getStore(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.catalog.Lookup(chi.URLParam(r, "storeID"))
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("store_not_found", "unknown store id", http.StatusNotFound))
		return
	}

	writeJSON(w, http.StatusOK, storePayload{
		ID:                  cfg.ID,
		Name:                cfg.Name,
		Currency:            cfg.Currency,
		LanguageID:          cfg.LanguageID,
		DisplayPriceWithTax: cfg.DisplayPriceWithTax,
		Default:             cfg.ID == h.catalog.Default().ID,
	})
}
