package shutdown

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"filestream/internal/pkg/logger"
)

func newTestManager(timeout time.Duration) *Manager {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "error", Format: "json", Output: &buf})
	return NewManager(log, timeout)
}

func TestShutdownRunsAllHandlers(t *testing.T) {
	m := newTestManager(time.Second)

	var ran int32
	for i := 0; i < 3; i++ {
		m.Register("handler", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}

	m.Shutdown()

	if got := atomic.LoadInt32(&ran); got != 3 {
		t.Errorf("ran %d handlers, want 3", got)
	}
}

func TestShutdownContinuesOnError(t *testing.T) {
	m := newTestManager(time.Second)

	var ran int32
	m.Register("failing", func(ctx context.Context) error {
		return errors.New("cleanup failed")
	})
	m.Register("ok", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	m.Shutdown()

	if atomic.LoadInt32(&ran) != 1 {
		t.Error("remaining handlers should run despite a failure")
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := newTestManager(50 * time.Millisecond)

	release := make(chan struct{})
	m.Register("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	done := make(chan struct{})
	go func() {
		m.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return after timeout")
	}
	close(release)
}

func TestDoneAndContext(t *testing.T) {
	m := newTestManager(time.Second)
	ctx := m.Context()

	select {
	case <-m.Done():
		t.Fatal("Done closed before shutdown")
	case <-ctx.Done():
		t.Fatal("Context canceled before shutdown")
	default:
	}

	m.Shutdown()

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after shutdown")
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Context not canceled after shutdown")
	}
}
