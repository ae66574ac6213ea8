package memredis

import (
	"context"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/lifecycle"
	"github.com/kbukum/scopekit/logger"
)

var (
	_ lifecycle.Startable = (*Resource)(nil)
	_ lifecycle.TestAware = (*Resource)(nil)
)

// Resource is an in-memory Redis server with a connected client.
type Resource struct {
	name  string
	flush bool
	log   *logger.Logger

	mu     sync.RWMutex
	mini   *miniredis.Miniredis
	client *goredis.Client
}

// Option configures a Resource.
type Option func(*Resource)

// WithFlushBeforeTest controls whether BeforeTest empties the keyspace.
// Enabled by default.
func WithFlushBeforeTest(enabled bool) Option {
	return func(r *Resource) { r.flush = enabled }
}

// New creates an in-memory Redis resource.
func New(name string, opts ...Option) *Resource {
	r := &Resource{
		name:  name,
		flush: true,
		log:   logger.Get("memredis").WithFields(logger.Fields(logger.FieldResource, name)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Start launches the server and connects a client to it.
func (r *Resource) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mini != nil {
		return errors.AlreadyStarted(r.name)
	}

	mini, err := miniredis.Run()
	if err != nil {
		return fmt.Errorf("memredis %s: start server: %w", r.name, err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		mini.Close()
		return fmt.Errorf("memredis %s: ping: %w", r.name, err)
	}

	r.mini, r.client = mini, client
	r.log.Debug("in-memory redis started", logger.Fields("addr", mini.Addr()))
	return nil
}

// Stop closes the client and shuts the server down.
func (r *Resource) Stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mini == nil {
		return nil
	}

	var err error
	if cerr := r.client.Close(); cerr != nil {
		err = fmt.Errorf("memredis %s: close client: %w", r.name, cerr)
	}
	r.mini.Close()
	r.mini, r.client = nil, nil
	return err
}

// BeforeTest flushes the keyspace unless disabled.
func (r *Resource) BeforeTest(_ context.Context, desc lifecycle.Description) error {
	if !r.flush {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.mini == nil {
		return fmt.Errorf("memredis %s: not started", r.name)
	}
	r.mini.FlushAll()
	r.log.Debug("keyspace flushed", logger.Fields(logger.FieldNode, desc.Label()))
	return nil
}

// AfterTest logs the keys left behind by a failed test.
func (r *Resource) AfterTest(_ context.Context, desc lifecycle.Description, outcome lifecycle.Outcome) error {
	if outcome.Status != lifecycle.Failed {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.mini == nil {
		return nil
	}
	r.log.Info("keys after failed test", logger.Fields(
		logger.FieldNode, desc.Label(),
		logger.FieldCount, len(r.mini.Keys()),
		"keys", r.mini.Keys(),
	))
	return nil
}

// Addr returns the server address, or "" when not started.
func (r *Resource) Addr() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.mini == nil {
		return ""
	}
	return r.mini.Addr()
}

// Client returns the connected client, or nil when not started.
func (r *Resource) Client() *goredis.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// Server exposes the underlying server for direct inspection, such as
// fast-forwarding TTLs. Nil when not started.
func (r *Resource) Server() *miniredis.Miniredis {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mini
}
