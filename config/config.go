package config

import (
	"time"

	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/observability"
	"github.com/kbukum/scopekit/probe/docker"
	"github.com/kbukum/scopekit/scope"
	"github.com/kbukum/scopekit/validation"
)

// Config is the complete scopekit configuration.
type Config struct {
	Name          string               `yaml:"name" mapstructure:"name" validate:"required"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Docker        docker.Config        `yaml:"docker" mapstructure:"docker"`
	Resources     ResourcesConfig      `yaml:"resources" mapstructure:"resources"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ResourcesConfig controls how declared resources are scoped and stopped.
type ResourcesConfig struct {
	// SharedLifespan is "run" (shared resources live for the whole run) or
	// "node" (they are stopped when their declaring node finishes).
	SharedLifespan string `yaml:"shared_lifespan" mapstructure:"shared_lifespan" validate:"omitempty,oneof=run node"`
	// StopTimeout bounds each resource's Stop. Zero means no bound.
	StopTimeout time.Duration `yaml:"stop_timeout" mapstructure:"stop_timeout" validate:"gte=0"`
}

// Lifespan returns the configured shared lifespan.
func (c ResourcesConfig) Lifespan() scope.Lifespan {
	if c.SharedLifespan == "node" {
		return scope.Node
	}
	return scope.Run
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "scopekit"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Docker.ApplyDefaults()
	if c.Resources.SharedLifespan == "" {
		c.Resources.SharedLifespan = "run"
	}
	c.Observability.ApplyDefaults()
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("", validation.Validate(c))
	v.Merge("logging", c.Logging.Validate())
	v.Merge("docker", c.Docker.Validate())
	v.Merge("observability", c.Observability.Validate())
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
