package process

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/kbukum/scopekit/resilience"
)

// Defaults for Command.
const (
	DefaultGracePeriod  = 5 * time.Second
	DefaultReadyTimeout = 30 * time.Second
)

// Command configures a subprocess.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	Args   []string
	// Dir is the working directory. Empty uses the current directory.
	Dir string
	// Env holds extra key=value pairs merged over the parent environment.
	Env []string
	// GracePeriod is how long Stop waits after SIGTERM before SIGKILL.
	GracePeriod time.Duration
	// Ready reports whether the process accepts work. Nil means ready as
	// soon as it is spawned.
	Ready func(ctx context.Context) error
	// ReadyTimeout bounds the wait for Ready.
	ReadyTimeout time.Duration
	// ReadyRetry paces the Ready checks. By default every error is retried
	// until ReadyTimeout.
	ReadyRetry resilience.RetryConfig
}

func (c *Command) applyDefaults() {
	if c.GracePeriod <= 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = DefaultReadyTimeout
	}
	if c.ReadyRetry.MaxAttempts <= 0 {
		c.ReadyRetry.MaxAttempts = 1 << 20
	}
	if c.ReadyRetry.InitialBackoff <= 0 {
		c.ReadyRetry.InitialBackoff = 50 * time.Millisecond
	}
	if c.ReadyRetry.MaxBackoff <= 0 {
		c.ReadyRetry.MaxBackoff = time.Second
	}
}

// DialReady reports ready once a TCP connection to addr succeeds.
func DialReady(addr string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("dial %s: %w", addr, err)
		}
		return conn.Close()
	}
}
