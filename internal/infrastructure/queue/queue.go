// Package queue is an in-process deferred task queue: tasks become eligible
// after their delay and are executed by a small worker pool. A retry is a
// newly enqueued task, never a blocked goroutine.
package queue

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"MedTracker/internal/ports"
)

type item struct {
	runAt time.Time
	task  ports.Task
}

type itemHeap []item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].runAt.Before(h[j].runAt) }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x any)         { *h = append(*h, x.(item)) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Queue dispatches deferred tasks to a fixed worker pool. Task panics and
// errors are contained at the worker boundary so one bad task cannot take
// the dispatcher down.
type Queue struct {
	mu      sync.Mutex
	pending itemHeap
	wake    chan struct{}
	ready   chan ports.Task
	stop    chan struct{}
	wg      sync.WaitGroup
	workers int
	logger  *slog.Logger
}

var _ ports.TaskQueue = (*Queue)(nil)

// New sizes the queue; workers defaults to 4 when non-positive.
func New(workers int, logger *slog.Logger) *Queue {
	if workers <= 0 {
		workers = 4
	}
	return &Queue{
		wake:    make(chan struct{}, 1),
		ready:   make(chan ports.Task, 64),
		workers: workers,
		logger:  logger,
	}
}

// Enqueue schedules a task to run after the delay. Safe before Start; the
// task just waits until the dispatcher comes up.
func (q *Queue) Enqueue(delay time.Duration, task ports.Task) {
	if task == nil {
		return
	}

	q.mu.Lock()
	heap.Push(&q.pending, item{runAt: time.Now().Add(delay), task: task})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Start launches the dispatcher and worker goroutines.
func (q *Queue) Start(ctx context.Context) {
	if q.stop != nil {
		return
	}
	q.stop = make(chan struct{})

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}

	q.wg.Add(1)
	go q.dispatch(ctx)
}

// Stop halts dispatching and waits for in-flight tasks to finish.
func (q *Queue) Stop() {
	if q.stop == nil {
		return
	}
	close(q.stop)
	q.wg.Wait()
	q.stop = nil
}

func (q *Queue) dispatch(ctx context.Context) {
	defer q.wg.Done()

	for {
		next, ok := q.peek()

		var timer *time.Timer
		var fire <-chan time.Time
		if ok {
			wait := time.Until(next)
			if wait <= 0 {
				if task, due := q.popDue(); due {
					select {
					case q.ready <- task:
					case <-ctx.Done():
						return
					case <-q.stop:
						return
					}
				}
				continue
			}
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-fire:
		case <-q.wake:
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-q.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (q *Queue) peek() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return time.Time{}, false
	}
	return q.pending[0].runAt, true
}

func (q *Queue) popDue() (ports.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 || q.pending[0].runAt.After(time.Now()) {
		return nil, false
	}
	it := heap.Pop(&q.pending).(item)
	return it.task, true
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case task := <-q.ready:
			q.run(ctx, task)
		case <-ctx.Done():
			return
		case <-q.stop:
			return
		}
	}
}

func (q *Queue) run(ctx context.Context, task ports.Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", "panic", r)
		}
	}()
	task(ctx)
}
