package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/forgecart/storefront/internal/platform/config"
)

const defaultStoreHeader = "X-Store-Id"

// CatalogStoreResolver resolves the active store from the request against the
// configured store catalog. An unknown or absent store id falls back to the
// catalog's default store, so every request always has a store in effect.
type CatalogStoreResolver struct {
	catalog *config.StoreCatalog
	header  string
}

// NewCatalogStoreResolver constructs a resolver over the given catalog.
func NewCatalogStoreResolver(catalog *config.StoreCatalog, header string) (*CatalogStoreResolver, error) {
	if catalog == nil {
		return nil, errors.New("store resolver: catalog is required")
	}
	header = strings.TrimSpace(header)
	if header == "" {
		header = defaultStoreHeader
	}
	return &CatalogStoreResolver{catalog: catalog, header: header}, nil
}

// Resolve implements StoreConfigResolver.
func (r *CatalogStoreResolver) Resolve(req *http.Request) StoreConfig {
	if r == nil || req == nil {
		return StoreConfig{}
	}

	storeID := strings.TrimSpace(req.Header.Get(r.header))
	if storeID == "" {
		storeID = strings.TrimSpace(req.URL.Query().Get("store"))
	}
	if storeID != "" {
		if cfg, ok := r.catalog.Lookup(storeID); ok {
			return cfg
		}
	}
	return r.catalog.Default()
}
