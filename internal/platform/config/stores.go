package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forgecart/storefront/internal/domain"
)

// StoreCatalog holds the configured stores keyed by lower-cased store id.
type StoreCatalog struct {
	defaultID string
	stores    map[string]domain.StoreConfig
}

type storeCatalogFile struct {
	DefaultStore string           `yaml:"defaultStore"`
	Stores       []storeEntryFile `yaml:"stores"`
}

type storeEntryFile struct {
	ID                  string `yaml:"id"`
	Name                string `yaml:"name"`
	Currency            string `yaml:"currency"`
	LanguageID          int    `yaml:"languageId"`
	DisplayPriceWithTax bool   `yaml:"displayPriceWithTax"`
	AcceptedGroups      []int  `yaml:"acceptedGroups"`
	DefaultCustomerID   int    `yaml:"defaultCustomerId"`
}

// LoadStoreCatalog reads and validates the YAML store catalog at path.
// The optional defaultOverride replaces the file's defaultStore entry.
func LoadStoreCatalog(path string, defaultOverride string) (*StoreCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read store catalog %s: %w", path, err)
	}

	var file storeCatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("config: invalid store catalog %s: %w", path, err)
	}

	if len(file.Stores) == 0 {
		return nil, fmt.Errorf("config: store catalog %s defines no stores", path)
	}

	stores := make(map[string]domain.StoreConfig, len(file.Stores))
	for i, entry := range file.Stores {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("config: store catalog %s: entry %d has no id", path, i)
		}
		key := strings.ToLower(id)
		if _, exists := stores[key]; exists {
			return nil, fmt.Errorf("config: store catalog %s: duplicate store id %q", path, id)
		}
		currency := strings.ToUpper(strings.TrimSpace(entry.Currency))
		if currency == "" {
			currency = "USD"
		}
		stores[key] = domain.StoreConfig{
			ID:                  id,
			Name:                strings.TrimSpace(entry.Name),
			Currency:            currency,
			LanguageID:          entry.LanguageID,
			DisplayPriceWithTax: entry.DisplayPriceWithTax,
			AcceptedGroups:      append([]int(nil), entry.AcceptedGroups...),
			DefaultCustomerID:   entry.DefaultCustomerID,
		}
	}

	defaultID := strings.TrimSpace(defaultOverride)
	if defaultID == "" {
		defaultID = strings.TrimSpace(file.DefaultStore)
	}
	if defaultID == "" {
		return nil, fmt.Errorf("config: store catalog %s has no default store", path)
	}
	if _, ok := stores[strings.ToLower(defaultID)]; !ok {
		return nil, fmt.Errorf("config: default store %q not present in catalog %s", defaultID, path)
	}

	return &StoreCatalog{defaultID: defaultID, stores: stores}, nil
}

// Lookup returns the store config for the given id.
func (c *StoreCatalog) Lookup(storeID string) (domain.StoreConfig, bool) {
	if c == nil {
		return domain.StoreConfig{}, false
	}
	cfg, ok := c.stores[strings.ToLower(strings.TrimSpace(storeID))]
	return cfg, ok
}

// Default returns the catalog's default store config.
func (c *StoreCatalog) Default() domain.StoreConfig {
	if c == nil {
		return domain.StoreConfig{}
	}
	cfg := c.stores[strings.ToLower(c.defaultID)]
	return cfg
}

// IDs lists the configured store ids.
func (c *StoreCatalog) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.stores))
	for _, cfg := range c.stores {
		out = append(out, cfg.ID)
	}
	return out
}
