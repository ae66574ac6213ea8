package process_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/scopekit/declare"
	apperrors "github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/process"
)

func TestResource_StartStop(t *testing.T) {
	r := process.New("sleeper", process.Command{Binary: "sleep", Args: []string{"30"}})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Running() {
		t.Fatal("expected process to be running")
	}
	if r.Pid() == 0 {
		t.Fatal("expected a pid")
	}

	start := time.Now()
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("SIGTERM should end sleep promptly, took %v", time.Since(start))
	}
	if r.Running() {
		t.Error("expected process to be stopped")
	}
}

func TestResource_StartTwice(t *testing.T) {
	r := process.New("sleeper", process.Command{Binary: "sleep", Args: []string{"30"}})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Stop(context.Background())

	err := r.Start(context.Background())
	if !apperrors.IsCode(err, apperrors.ErrCodeAlreadyStarted) {
		t.Fatalf("expected already started, got %v", err)
	}
}

func TestResource_KillsAfterGracePeriod(t *testing.T) {
	r := process.New("stubborn", process.Command{
		Binary:      "sh",
		Args:        []string{"-c", "trap '' TERM; echo trapped; sleep 30"},
		GracePeriod: 100 * time.Millisecond,
		Ready: func(context.Context) error {
			return nil
		},
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- r.Stop(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected stop error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not escalate to SIGKILL")
	}
}

func TestResource_StopNeverStarted(t *testing.T) {
	r := process.New("idle", process.Command{Binary: "sleep"})
	if err := r.Stop(context.Background()); !errors.Is(err, process.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestResource_MissingBinary(t *testing.T) {
	r := process.New("ghost", process.Command{Binary: "scopekit-no-such-binary"})
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("expected start failure")
	}
	if r.Running() {
		t.Error("expected nothing running")
	}
}

func TestResource_RequiresBinary(t *testing.T) {
	err := process.New("empty", process.Command{}).Start(context.Background())
	if !apperrors.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestResource_ExitsBeforeReady(t *testing.T) {
	r := process.New("crasher", process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo boom; exit 3"},
		Ready: func(context.Context) error {
			return errors.New("not yet")
		},
		ReadyTimeout: 5 * time.Second,
	})
	err := r.Start(context.Background())
	if err == nil {
		t.Fatal("expected start failure")
	}
	if !strings.Contains(err.Error(), "exited before becoming ready") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected captured output in error, got %v", err)
	}
}

func TestResource_ReadyTimeout(t *testing.T) {
	r := process.New("slow", process.Command{
		Binary:       "sleep",
		Args:         []string{"30"},
		Ready:        func(context.Context) error { return errors.New("still booting") },
		ReadyTimeout: 200 * time.Millisecond,
	})
	err := r.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not ready") {
		t.Fatalf("expected readiness timeout, got %v", err)
	}
	if r.Running() {
		t.Error("expected process killed after readiness timeout")
	}
}

func TestDialReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	ready := process.DialReady(addr)
	if err := ready(context.Background()); err != nil {
		t.Fatalf("expected listener to be ready: %v", err)
	}
	ln.Close()
	if err := ready(context.Background()); err == nil {
		t.Fatal("expected dial failure after close")
	}
}

func TestResource_Declarable(t *testing.T) {
	r := process.New("sleeper", process.Command{Binary: "sleep", Args: []string{"30"}})
	typ := declare.Shared(declare.NewType("ProcessSuite"), "sleeper", func() *process.Resource { return r })
	decls, err := declare.Scan(declare.KindShared, typ, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decls) != 1 || decls[0].Key != "ProcessSuite.sleeper" {
		t.Fatalf("unexpected declarations %v", decls)
	}
}
