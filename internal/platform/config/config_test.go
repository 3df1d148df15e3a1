package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_ENGINE_BASE_URL":      "https://engine.example.com",
		"STOREFRONT_AUTH_ASSERTION_SECRET": "shared-secret",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.SiteMount != "" {
		t.Errorf("expected empty site mount by default, got %s", cfg.Server.SiteMount)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Engine.CallTimeout != defaultEngineCallTimeout {
		t.Errorf("unexpected engine call timeout: %s", cfg.Engine.CallTimeout)
	}
	if cfg.Session.CookieName != defaultSessionCookie {
		t.Errorf("expected default session cookie, got %s", cfg.Session.CookieName)
	}
	if cfg.Session.MaxStoreSessions != defaultMaxStoreSessions {
		t.Errorf("unexpected default max store sessions: %d", cfg.Session.MaxStoreSessions)
	}
	if cfg.Auth.AssertionCookie != defaultAssertionCookie {
		t.Errorf("expected default assertion cookie, got %s", cfg.Auth.AssertionCookie)
	}
	if cfg.Stores.CatalogPath != defaultStoreCatalogPath {
		t.Errorf("expected default catalog path, got %s", cfg.Stores.CatalogPath)
	}
	if cfg.Stores.Header != defaultStoreHeader {
		t.Errorf("expected default store header, got %s", cfg.Stores.Header)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_SERVER_PORT":           "9090",
		"STOREFRONT_SERVER_READ_TIMEOUT":   "20s",
		"STOREFRONT_SITE_MOUNT":            "/shop",
		"STOREFRONT_ENGINE_BASE_URL":       "https://engine.prod.example.com",
		"STOREFRONT_ENGINE_API_KEY":        "secret://engine/api-key",
		"STOREFRONT_ENGINE_CALL_TIMEOUT":   "5s",
		"STOREFRONT_SESSION_MAX_STORES":    "4",
		"STOREFRONT_AUTH_ASSERTION_SECRET": "sm://host/assertion-secret",
		"STOREFRONT_STORES_DEFAULT":        "outlet",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		switch ref {
		case "secret://engine/api-key":
			return "api-key-value", nil
		case "secret://host/assertion-secret":
			return "assertion-secret-value", nil
		default:
			return "", fmt.Errorf("unexpected ref %q", ref)
		}
	})

	cfg, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.SiteMount != "/shop" {
		t.Errorf("expected site mount /shop, got %s", cfg.Server.SiteMount)
	}
	if cfg.Engine.APIKey != "api-key-value" {
		t.Errorf("expected resolved api key, got %q", cfg.Engine.APIKey)
	}
	if cfg.Engine.CallTimeout != 5*time.Second {
		t.Errorf("unexpected engine call timeout: %s", cfg.Engine.CallTimeout)
	}
	if cfg.Session.MaxStoreSessions != 4 {
		t.Errorf("expected 4 max store sessions, got %d", cfg.Session.MaxStoreSessions)
	}
	if cfg.Auth.AssertionSecret != "assertion-secret-value" {
		t.Errorf("expected resolved assertion secret, got %q", cfg.Auth.AssertionSecret)
	}
	if cfg.Stores.DefaultStoreID != "outlet" {
		t.Errorf("expected default store outlet, got %s", cfg.Stores.DefaultStoreID)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	fields := validation.Fields()
	wantMissing := map[string]bool{"Engine.BaseURL": false, "Auth.AssertionSecret": false}
	for _, field := range fields {
		if _, ok := wantMissing[field]; ok {
			wantMissing[field] = true
		}
	}
	for field, seen := range wantMissing {
		if !seen {
			t.Errorf("expected %s reported missing, fields were %v", field, fields)
		}
	}
}

func TestLoadSecretResolutionFailure(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_ENGINE_BASE_URL":       "https://engine.example.com",
		"STOREFRONT_AUTH_ASSERTION_SECRET": "secret://host/assertion-secret",
	}

	resolver := SecretResolverFunc(func(context.Context, string) (string, error) {
		return "", errors.New("permission denied")
	})

	_, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
	)
	if err == nil {
		t.Fatal("expected secret error")
	}

	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://host/assertion-secret" {
		t.Errorf("unexpected secret ref: %s", secretErr.Ref)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_ENGINE_BASE_URL":       "https://engine.example.com",
		"STOREFRONT_AUTH_ASSERTION_SECRET": "shared-secret",
	}

	_, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Engine.APIKey"),
	)
	if err == nil {
		t.Fatal("expected missing secrets error")
	}

	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %T", err)
	}
	if len(missing.RedactedNames()) != 1 {
		t.Errorf("expected one redacted name, got %v", missing.RedactedNames())
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	contents := "STOREFRONT_ENGINE_BASE_URL=https://engine.local\nSTOREFRONT_AUTH_ASSERTION_SECRET=\"dotenv-secret\"\n"
	if err := os.WriteFile(envPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Engine.BaseURL != "https://engine.local" {
		t.Errorf("expected dotenv base url, got %s", cfg.Engine.BaseURL)
	}
	if cfg.Auth.AssertionSecret != "dotenv-secret" {
		t.Errorf("expected unquoted dotenv secret, got %q", cfg.Auth.AssertionSecret)
	}
}

func TestEnvMapTakesPrecedenceOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	contents := "STOREFRONT_ENGINE_BASE_URL=https://dotenv.local\nSTOREFRONT_AUTH_ASSERTION_SECRET=x\n"
	if err := os.WriteFile(envPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithoutSystemEnv(),
		WithEnvFile(envPath),
		WithEnvMap(map[string]string{"STOREFRONT_ENGINE_BASE_URL": "https://envmap.local"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Engine.BaseURL != "https://envmap.local" {
		t.Errorf("expected env map to win, got %s", cfg.Engine.BaseURL)
	}
}
