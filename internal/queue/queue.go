// Package queue serializes command execution. All mutations extracted from
// all conversations funnel through one worker goroutine, so no two handlers
// ever run concurrently.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"filegenie/internal/handler"
	"filegenie/internal/logging"
	"filegenie/internal/sandbox"
)

// Task is one extracted command bound to the sandbox it must run in.
type Task struct {
	Conversation string
	Command      string
	Args         []string
	Handler      handler.Handler
	Sandbox      sandbox.Sandbox
}

// Observer is notified after each task finishes, on the worker goroutine.
type Observer func(t Task, err error, d time.Duration)

// Queue is an unbounded FIFO with a single consumer. Enqueue never blocks
// the producer; handler errors are logged and never stop the worker.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	tasks    []Task
	closed   bool
	done     chan struct{}
	observer Observer
}

// New returns an idle queue. Call Start to launch the worker.
func New(obs Observer) *Queue {
	q := &Queue{
		done:     make(chan struct{}),
		observer: obs,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a task. Tasks enqueued after Close are dropped.
func (q *Queue) Enqueue(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		logging.DevLog("queue: dropped %s for closed queue", t.Command)
		return
	}
	q.tasks = append(q.tasks, t)
	q.cond.Signal()
}

// Len reports the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Start launches the worker goroutine. Tasks run in enqueue order until the
// queue is closed or ctx is canceled; cancellation also wakes the worker so
// it never parks forever on an empty queue.
func (q *Queue) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		q.cond.Broadcast()
	}()
	go q.run(ctx)
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed && ctx.Err() == nil {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		t := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()
		q.execute(ctx, t)
	}
}

func (q *Queue) execute(ctx context.Context, t Task) {
	start := time.Now()
	err := runSafely(ctx, t)
	elapsed := time.Since(start)
	if err != nil {
		logging.ErrorLog("queue: %s failed for %s: %v", t.Command, t.Conversation, err)
	} else {
		logging.DevLog("queue: %s done in %dms", t.Command, elapsed.Milliseconds())
	}
	if q.observer != nil {
		q.observer(t, err, elapsed)
	}
}

// runSafely converts a handler panic into an error so one bad command can
// never take the worker down.
func runSafely(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{command: t.Command, value: r}
		}
	}()
	return t.Handler(ctx, t.Args, t.Sandbox)
}

type panicError struct {
	command string
	value   any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic in handler %s: %v", e.command, e.value)
}

// Close stops intake and waits for the worker to drain remaining tasks.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}
