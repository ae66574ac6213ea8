// Package docker checks whether a Docker daemon is reachable. It is the
// default availability probe behind skip markers.
package docker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"

	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/resilience"
)

// Capability is the name the probe registers under.
const Capability = "docker"

type pinger interface {
	Ping(ctx context.Context) (types.Ping, error)
}

// Probe pings the Docker daemon. The client is created on first use, so a
// misconfigured environment reports unavailable instead of failing early.
type Probe struct {
	cfg Config
	log *logger.Logger

	mu     sync.Mutex
	client pinger
}

// New creates a probe from cfg.
func New(cfg Config) *Probe {
	cfg.ApplyDefaults()
	return &Probe{cfg: cfg, log: logger.Get("probe.docker")}
}

func newWithClient(cfg Config, c pinger) *Probe {
	p := New(cfg)
	p.client = c
	return p
}

// Available pings the daemon, each attempt bounded by the ping timeout.
func (p *Probe) Available(ctx context.Context) error {
	c, err := p.connect()
	if err != nil {
		return err
	}

	retry := p.cfg.Retry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		p.log.Debug("docker ping failed, retrying", logger.Fields(
			"attempt", attempt,
			"backoff", backoff.String(),
			logger.FieldError, err.Error(),
		))
	}

	ping, err := resilience.Retry(ctx, retry, func() (types.Ping, error) {
		pctx, cancel := context.WithTimeout(ctx, p.cfg.PingTimeout)
		defer cancel()
		return c.Ping(pctx)
	})
	if err != nil {
		p.log.Debug("docker ping failed", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("docker: ping: %w", err)
	}
	p.log.Debug("docker available", logger.Fields(
		"api_version", ping.APIVersion,
		"os_type", ping.OSType,
	))
	return nil
}

func (p *Probe) connect() (pinger, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	cli, err := NewClient(p.cfg)
	if err != nil {
		return nil, err
	}
	p.client = cli
	return cli, nil
}

// NewClient creates a Docker client from the environment, overridden by cfg.
func NewClient(cfg Config) (*client.Client, error) {
	opts := []client.Opt{client.FromEnv}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}
	if cfg.TLS != nil && cfg.TLS.Cert != "" {
		opts = append(opts, client.WithTLSClientConfig(cfg.TLS.CACert, cfg.TLS.Cert, cfg.TLS.Key))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker: create client: %w", err)
	}
	return cli, nil
}

// Close releases the underlying client, if one was created.
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cli, ok := p.client.(*client.Client); ok {
		p.client = nil
		return cli.Close()
	}
	return nil
}
