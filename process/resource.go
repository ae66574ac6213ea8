package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/lifecycle"
	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/resilience"
)

// ErrNotRunning is returned by Stop when the process was never started.
var ErrNotRunning = stderrors.New("process: not running")

var _ lifecycle.Startable = (*Resource)(nil)

// Resource is a subprocess implementing lifecycle.Startable.
type Resource struct {
	name string
	cmd  Command
	log  *logger.Logger

	mu     sync.Mutex
	proc   *exec.Cmd
	done   chan struct{}
	err    error
	output *syncBuffer
}

// New creates a process resource. Nothing is spawned until Start.
func New(name string, cmd Command) *Resource {
	cmd.applyDefaults()
	return &Resource{
		name: name,
		cmd:  cmd,
		log:  logger.Get("process").WithFields(logger.Fields(logger.FieldResource, name)),
	}
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Start spawns the process and waits until it is ready. A process that
// never becomes ready is killed before Start returns.
func (r *Resource) Start(ctx context.Context) error {
	if r.cmd.Binary == "" {
		return errors.Configuration("process %s: binary is required", r.name)
	}

	r.mu.Lock()
	if r.proc != nil {
		r.mu.Unlock()
		return errors.AlreadyStarted(r.name)
	}
	c := exec.Command(r.cmd.Binary, r.cmd.Args...) //nolint:gosec // running the configured binary is the point
	c.Dir = r.cmd.Dir
	c.Env = mergeEnv(r.cmd.Env)
	out := &syncBuffer{}
	c.Stdout = out
	c.Stderr = out
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := c.Start(); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("process %s: %w", r.name, err)
	}
	done := make(chan struct{})
	r.proc, r.done, r.output, r.err = c, done, out, nil
	r.mu.Unlock()

	go func() {
		err := c.Wait()
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		close(done)
	}()

	r.log.Debug("process spawned", logger.Fields("pid", c.Process.Pid, "binary", r.cmd.Binary))
	if err := r.awaitReady(ctx); err != nil {
		_ = r.Stop(context.Background())
		return err
	}
	return nil
}

func (r *Resource) awaitReady(ctx context.Context) error {
	if r.cmd.Ready == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.cmd.ReadyTimeout)
	defer cancel()

	retry := r.cmd.ReadyRetry
	retryIf := retry.RetryIf
	retry.RetryIf = func(err error) bool {
		var exited exitedError
		if stderrors.As(err, &exited) {
			return false
		}
		return retryIf == nil || retryIf(err)
	}

	err := resilience.RetryFunc(ctx, retry, func() error {
		if r.exited() {
			return exitedError{r.name, r.exitErr()}
		}
		return r.cmd.Ready(ctx)
	})
	var exited exitedError
	if stderrors.As(err, &exited) {
		return fmt.Errorf("process %s exited before becoming ready: %w\n%s", r.name, exited.err, r.Output())
	}
	if err != nil {
		return fmt.Errorf("process %s not ready after %s: %w", r.name, r.cmd.ReadyTimeout, err)
	}
	return nil
}

// Stop terminates the process group: SIGTERM, then SIGKILL once the grace
// period or ctx runs out. Stopping an exited process is not an error.
func (r *Resource) Stop(ctx context.Context) error {
	r.mu.Lock()
	c, done := r.proc, r.done
	r.proc = nil
	r.mu.Unlock()
	if c == nil {
		return ErrNotRunning
	}

	select {
	case <-done:
		return nil
	default:
	}

	pgid := -c.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	timer := time.NewTimer(r.cmd.GracePeriod)
	defer timer.Stop()
	select {
	case <-done:
		r.log.Debug("process terminated")
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	r.log.Warn("process ignored SIGTERM, killing", logger.Fields("grace_period", r.cmd.GracePeriod.String()))
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && !stderrors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("process %s: kill: %w", r.name, err)
	}
	<-done
	return nil
}

// Running reports whether the process was started and has not exited.
func (r *Resource) Running() bool {
	r.mu.Lock()
	started := r.proc != nil
	r.mu.Unlock()
	return started && !r.exited()
}

// Pid returns the process id, or 0 when not started.
func (r *Resource) Pid() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc == nil {
		return 0
	}
	return r.proc.Process.Pid
}

// Output returns the combined stdout and stderr captured so far.
func (r *Resource) Output() string {
	r.mu.Lock()
	out := r.output
	r.mu.Unlock()
	if out == nil {
		return ""
	}
	return out.String()
}

func (r *Resource) exited() bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func (r *Resource) exitErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

type exitedError struct {
	name string
	err  error
}

func (e exitedError) Error() string {
	return fmt.Sprintf("process %s exited: %v", e.name, e.err)
}

// mergeEnv merges extra env vars over the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
