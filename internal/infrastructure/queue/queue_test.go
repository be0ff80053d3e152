package queue

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestImmediateTasksRun(t *testing.T) {
	t.Parallel()

	q := New(2, testLogger())
	q.Start(context.Background())
	defer q.Stop()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		q.Enqueue(0, func(context.Context) {
			ran.Add(1)
			wg.Done()
		})
	}

	waitFor(t, &wg, 2*time.Second)
	if got := ran.Load(); got != 10 {
		t.Errorf("ran = %d, want 10", got)
	}
}

func TestDelayedTaskWaits(t *testing.T) {
	t.Parallel()

	q := New(1, testLogger())
	q.Start(context.Background())
	defer q.Stop()

	start := time.Now()
	done := make(chan time.Time, 1)
	q.Enqueue(100*time.Millisecond, func(context.Context) {
		done <- time.Now()
	})

	select {
	case at := <-done:
		if elapsed := at.Sub(start); elapsed < 100*time.Millisecond {
			t.Errorf("task ran after %v, want >= 100ms", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delayed task never ran")
	}
}

func TestEnqueueBeforeStart(t *testing.T) {
	t.Parallel()

	q := New(1, testLogger())
	done := make(chan struct{})
	q.Enqueue(0, func(context.Context) { close(done) })

	q.Start(context.Background())
	defer q.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pre-start task never ran")
	}
}

func TestPanicIsContained(t *testing.T) {
	t.Parallel()

	q := New(1, testLogger())
	q.Start(context.Background())
	defer q.Stop()

	q.Enqueue(0, func(context.Context) { panic("boom") })

	done := make(chan struct{})
	q.Enqueue(10*time.Millisecond, func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queue stopped processing after a task panic")
	}
}

func TestShorterDelayRunsFirst(t *testing.T) {
	t.Parallel()

	q := New(1, testLogger())

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	q.Enqueue(150*time.Millisecond, func(context.Context) { record("late") })
	q.Enqueue(20*time.Millisecond, func(context.Context) { record("early") })

	q.Start(context.Background())
	defer q.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tasks did not finish, got %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if order[0] != "early" || order[1] != "late" {
		t.Errorf("order = %v, want [early late]", order)
	}
}

func waitFor(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for tasks")
	}
}
