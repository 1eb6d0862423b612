package config

import (
	"hiloscan/pkg/confkit"
	"hiloscan/pkg/market"
	"hiloscan/pkg/notify"
	"hiloscan/pkg/scan"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
// It isolates provider config so tests do not need the full app config.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}

// MustBuildMarketProviders loads market config from the default path and
// builds provider instances; returns the map and default provider name.
func MustBuildMarketProviders() (map[string]market.Provider, string) {
	cfg := MustLoadMarket()
	providers, err := cfg.BuildProviders()
	if err != nil {
		panic(err)
	}
	return providers, cfg.Default
}

// MustLoadScanner loads etc/scanner.yaml from the project root and panics on error.
func MustLoadScanner() *scan.Config {
	cfg, err := scan.LoadConfig(confkit.MustProjectPath("etc/scanner.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// MustLoadNotifier loads etc/notifier.yaml from the project root and panics on error.
func MustLoadNotifier() *notify.Config {
	cfg, err := notify.LoadConfig(confkit.MustProjectPath("etc/notifier.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}
