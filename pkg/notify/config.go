package notify

import (
	"fmt"
	"strings"

	"hiloscan/pkg/confkit"
)

// Config describes the Evolution API endpoint used for WhatsApp delivery.
type Config struct {
	// BaseURL is the Evolution API root, without the sendText path.
	BaseURL string `json:",optional"`
	// Instance is the Evolution messaging instance name.
	Instance string `json:",optional"`
	// APIKey authenticates requests via the apikey header.
	APIKey string `json:",optional"`
	// DefaultNumber receives messages when no number is configured in the
	// application settings store.
	DefaultNumber string `json:",optional"`
}

// LoadConfig reads notifier configuration from a YAML file with env
// expansion.
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

// Validate checks that the delivery endpoint is fully specified.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("notify config: base url is required")
	}
	if strings.TrimSpace(c.Instance) == "" {
		return fmt.Errorf("notify config: instance is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("notify config: api key is required")
	}
	return nil
}

// SendTextURL assembles the full message endpoint.
func (c *Config) SendTextURL() string {
	return fmt.Sprintf("%s/message/sendText/%s", strings.TrimRight(c.BaseURL, "/"), c.Instance)
}
