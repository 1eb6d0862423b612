package scan

import (
	"fmt"

	"hiloscan/pkg/confkit"
)

// Config carries the scanner tuning knobs. Loaded once per batch and treated
// as immutable for that run.
type Config struct {
	// TrendPeriod is the HiLo rolling window in candles.
	TrendPeriod int `json:",default=10"`
	// ProfitTargetPercent triggers a profit-target exit alert when an open
	// position's gain reaches this percentage.
	ProfitTargetPercent float64 `json:",default=50.0"`
	// Enabled gates automatic batch runs. Manual and forced runs bypass it.
	Enabled bool `json:",default=true"`
	// FoldLive folds the live price into the rolling averages before the
	// flip comparison (see hilo.Options).
	FoldLive bool `json:",optional"`
	// CandleWindow and CandleInterval are passed through to the market
	// provider when fetching history.
	CandleWindow   string `json:",default=3mo"`
	CandleInterval string `json:",default=1d"`
	// JournalDir, when set, enables per-cycle audit records.
	JournalDir string `json:",optional"`
}

// LoadConfig reads scanner configuration from a YAML file with env expansion.
func LoadConfig(path string) (*Config, error) {
	cfg, err := confkit.LoadFile[Config](path, true)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ShouldRun reports whether a batch may start. Manual invocations (explicit
// tickers or a forced run) always may; automatic runs honour the Enabled
// gate.
func (c *Config) ShouldRun(manual bool) bool {
	return manual || c.Enabled
}

// Validate checks structural soundness and applies floors.
func (c *Config) Validate() error {
	if c.TrendPeriod < 2 {
		return fmt.Errorf("scan config: trend period must be >= 2, got %d", c.TrendPeriod)
	}
	if c.ProfitTargetPercent <= 0 {
		return fmt.Errorf("scan config: profit target must be positive, got %v", c.ProfitTargetPercent)
	}
	if c.CandleWindow == "" {
		c.CandleWindow = "3mo"
	}
	if c.CandleInterval == "" {
		c.CandleInterval = "1d"
	}
	return nil
}
