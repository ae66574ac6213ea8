package docker

import (
	"fmt"
	"time"

	"github.com/kbukum/scopekit/resilience"
)

// DefaultPingTimeout bounds a single availability check.
const DefaultPingTimeout = 5 * time.Second

// Config holds the Docker daemon connection settings used by the probe.
type Config struct {
	// Host is the daemon address. Empty uses DOCKER_HOST and the platform default.
	Host string `mapstructure:"host" json:"host"`
	// APIVersion pins the API version. Empty negotiates with the daemon.
	APIVersion  string        `mapstructure:"api_version" json:"api_version"`
	TLS         *TLSConfig    `mapstructure:"tls" json:"tls"`
	PingTimeout time.Duration `mapstructure:"ping_timeout" json:"ping_timeout" validate:"gte=0"`
	// Retry re-pings a daemon that is still starting. One attempt by default.
	Retry resilience.RetryConfig `mapstructure:"retry" json:"retry"`
}

// TLSConfig holds Docker TLS settings.
type TLSConfig struct {
	CACert string `mapstructure:"ca_cert" json:"ca_cert"`
	Cert   string `mapstructure:"cert" json:"cert"`
	Key    string `mapstructure:"key" json:"key"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.PingTimeout == 0 {
		c.PingTimeout = DefaultPingTimeout
	}
	c.Retry.ApplyDefaults()
}

// Validate checks the Docker configuration.
func (c *Config) Validate() error {
	if c.PingTimeout < 0 {
		return fmt.Errorf("docker: ping_timeout must not be negative")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("docker: retry.max_attempts must not be negative")
	}
	if c.TLS != nil && (c.TLS.Cert == "" || c.TLS.Key == "") {
		return fmt.Errorf("docker: tls cert and key are both required when tls is enabled")
	}
	return nil
}
