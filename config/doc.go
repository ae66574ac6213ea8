// Package config loads scopekit settings.
//
// Settings come from scopekit.yml (searched in the working directory, its
// config/ and testdata/ folders and their parents), an optional .env file and
// SCOPEKIT_* environment variables, in increasing priority:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	logger.Init(&cfg.Logging)
//
// A nested key maps to an environment variable by upper-casing it and
// replacing dots with underscores: resources.shared_lifespan becomes
// SCOPEKIT_RESOURCES_SHARED_LIFESPAN.
package config
