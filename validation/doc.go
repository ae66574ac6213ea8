// Package validation checks configuration values and reports every problem
// at once as a configuration AppError.
//
// # Struct Tag Validation
//
//	type DockerConfig struct {
//	    Host        string        `mapstructure:"host"`
//	    PingTimeout time.Duration `mapstructure:"ping_timeout" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Field names in messages follow the mapstructure tags, so they match the
// keys users write in scopekit.yml.
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.OneOf("resources.shared_lifespan", cfg.SharedLifespan, []string{"run", "node"})
//	err := v.Validate()
package validation
