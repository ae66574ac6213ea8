package orchestrator

import (
	"context"

	"github.com/kbukum/scopekit/config"
	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/observability"
	"github.com/kbukum/scopekit/version"
)

// Setup loads the configuration, initializes the global logger and the
// OpenTelemetry providers, and creates an orchestrator from the result.
// The returned shutdown flushes telemetry and must be called once the run
// is over, typically from TestMain:
//
//	orch, shutdown, err := orchestrator.Setup(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	code := m.Run()
//	_ = shutdown(ctx)
func Setup(ctx context.Context, loadOpts []config.LoaderOption, opts ...Option) (*Orchestrator, observability.ShutdownFunc, error) {
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(&cfg.Logging)

	shutdown, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.Get().Version)
	if err != nil {
		return nil, nil, err
	}

	orch, err := New(append([]Option{WithConfig(cfg)}, opts...)...)
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, err
	}
	return orch, shutdown, nil
}
