package market_test

import (
	"os"
	"path/filepath"
	"testing"

	market "hiloscan/pkg/market"
	_ "hiloscan/pkg/market/providers/brapi"
)

// Ensures env placeholders are expanded and durations parsed.
func TestMarketConfig_EnvExpansionAndDurations(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BASE_URL_VAR", "https://quotes.test/api")
	t.Setenv("CHAIN_URL_VAR", "https://chain.test/completa")
	t.Setenv("TOKEN_VAR", "secret-token")
	t.Setenv("TOUT", "9s")

	yaml := []byte(`
default: b3
providers:
  b3:
    type: brapi
    base_url: ${BASE_URL_VAR}
    chain_url: ${CHAIN_URL_VAR}
    token: ${TOKEN_VAR}
    timeout: ${TOUT}
`)
	path := filepath.Join(dir, "market.yaml")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := market.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	p := cfg.Providers["b3"]
	if p == nil {
		t.Fatalf("provider b3 missing")
	}
	if p.BaseURL != "https://quotes.test/api" {
		t.Fatalf("BaseURL not expanded, got %q", p.BaseURL)
	}
	if p.ChainURL != "https://chain.test/completa" {
		t.Fatalf("ChainURL not expanded, got %q", p.ChainURL)
	}
	if p.Token != "secret-token" {
		t.Fatalf("Token not expanded, got %q", p.Token)
	}
	if p.Timeout.String() != "9s" {
		t.Fatalf("duration not parsed, timeout=%s", p.Timeout)
	}
}
