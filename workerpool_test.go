// Tests for workerpool.go

package libparc

import (
	"sync"
	"testing"
	"time"
)

func TestWorkerPoolExecuteRunsTask(t *testing.T) {
	p := NewWorkerPool(2, nil, 0)
	defer func() {
		p.Shutdown()
		p.Join()
	}()

	f := NewFutureTask(func(_ <-chan struct{}) (int, error) { return 5, nil })
	if err := p.Execute(f); err != nil {
		t.Fatalf("Execute(): unexpected error: %v", err)
	}
	v, err := f.Get(FromDuration(time.Second))
	if err != nil || v != 5 {
		t.Fatalf("Get(): got (%d, %v), want (5, nil)", v, err)
	}
}

func TestWorkerPoolExecuteAfterShutdownFails(t *testing.T) {
	p := NewWorkerPool(1, nil, 0)
	p.Shutdown()
	p.Join()
	f := NewFutureTask(func(_ <-chan struct{}) (int, error) { return 0, nil })
	if err := p.Execute(f); err != ErrShutDown {
		t.Fatalf("Execute() after Shutdown: got %v, want %v", err, ErrShutDown)
	}
}

func TestWorkerPoolShutdownDrainsQueuedWork(t *testing.T) {
	p := NewWorkerPool(1, nil, 0)
	var mu sync.Mutex
	ran := make([]int, 0, 3)
	record := func(i int) Callable[int] {
		return func(_ <-chan struct{}) (int, error) {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
			return i, nil
		}
	}
	futures := make([]*FutureTask[int], 3)
	for i := 0; i < 3; i++ {
		futures[i] = NewFutureTask(record(i))
		if err := p.Execute(futures[i]); err != nil {
			t.Fatalf("Execute(#%d): unexpected error: %v", i, err)
		}
	}
	p.Shutdown()
	p.Join()

	for i, f := range futures {
		if !f.IsDone() {
			t.Fatalf("task #%d: not done after graceful shutdown drained the queue", i)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 3 {
		t.Fatalf("graceful Shutdown: got %d tasks run, want 3", len(ran))
	}
}

func TestWorkerPoolExecuteRejectsOverCapacity(t *testing.T) {
	p := NewWorkerPool(1, nil, 1)
	release := make(chan struct{})
	started := make(chan struct{})
	defer close(release)

	blocker := NewFutureTask(func(_ <-chan struct{}) (int, error) {
		close(started)
		<-release
		return 0, nil
	})
	if err := p.Execute(blocker); err != nil {
		t.Fatalf("Execute(blocker): unexpected error: %v", err)
	}
	<-started

	queued := NewFutureTask(func(_ <-chan struct{}) (int, error) { return 0, nil })
	if err := p.Execute(queued); err != nil {
		t.Fatalf("Execute(queued) within capacity: unexpected error: %v", err)
	}
	overflow := NewFutureTask(func(_ <-chan struct{}) (int, error) { return 0, nil })
	if err := p.Execute(overflow); err != ErrQueueFull {
		t.Fatalf("Execute(overflow): got %v, want %v", err, ErrQueueFull)
	}
}

func TestWorkerPoolShutdownNowReturnsUndispatched(t *testing.T) {
	p := NewWorkerPool(1, nil, 0)
	release := make(chan struct{})
	started := make(chan struct{})
	blocker := NewFutureTask(func(_ <-chan struct{}) (int, error) {
		close(started)
		<-release
		return 0, nil
	})
	if err := p.Execute(blocker); err != nil {
		t.Fatalf("Execute(blocker): unexpected error: %v", err)
	}
	<-started

	queued := NewFutureTask(func(_ <-chan struct{}) (int, error) { return 1, nil })
	if err := p.Execute(queued); err != nil {
		t.Fatalf("Execute(queued): unexpected error: %v", err)
	}

	undispatched := p.ShutdownNow()
	close(release)
	p.Join()

	if len(undispatched) != 1 {
		t.Fatalf("ShutdownNow(): got %d undispatched tasks, want 1", len(undispatched))
	}
	if undispatched[0] != Task(queued) {
		t.Fatalf("ShutdownNow(): got the wrong task back")
	}
}

func TestWorkerPoolSurvivesPanickingTask(t *testing.T) {
	p := NewWorkerPool(1, nil, 0)
	defer func() {
		p.Shutdown()
		p.Join()
	}()

	boom := NewFutureTask(func(_ <-chan struct{}) (int, error) {
		panic("boom")
	})
	if err := p.Execute(boom); err != nil {
		t.Fatalf("Execute(boom): unexpected error: %v", err)
	}

	// The worker that ran boom must still be alive to pick up the next
	// task: a panicking Callable must not kill its worker goroutine.
	next := NewFutureTask(func(_ <-chan struct{}) (int, error) { return 9, nil })
	if err := p.Execute(next); err != nil {
		t.Fatalf("Execute(next): unexpected error: %v", err)
	}
	v, err := next.Get(FromDuration(time.Second))
	if err != nil || v != 9 {
		t.Fatalf("Get(next): got (%d, %v), want (9, nil); worker pool did not survive a panicking task", v, err)
	}
}
