package libparc

import (
	"sync"

	"github.com/gammazero/deque"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Task is the caller-visible view of a runnable task returned from
// ShutdownNow: enough to inspect its terminal state, without the typed
// Get() that requires knowing its result type V. This mirrors
// java.util.concurrent.ExecutorService.shutdownNow(), which likewise
// degrades Future<V> back to plain Runnable once the type parameter can no
// longer be threaded through.
type Task interface {
	IsDone() bool
	IsCancelled() bool
	State() State
}

// WorkerPool owns a fixed number of worker goroutines draining a FIFO run
// queue of ready FutureTasks. It is the bounded execution layer beneath the
// Scheduler's dispatcher: an explicit monitor (mutex + condition variable)
// over a ring-buffer deque, rather than a buffered channel, so the run
// queue's length and drain order stay directly inspectable.
type WorkerPool struct {
	mu   sync.Mutex
	cond *sync.Cond
	q    deque.Deque[runnable]

	size     int
	capacity int // 0 means unbounded
	log      *logrus.Entry

	acceptingNew      bool
	shutdownRequested bool
	cancelled         bool

	group errgroup.Group
}

// NewWorkerPool constructs a WorkerPool with the given number of workers
// and starts them immediately. poolSize must be >= 1. capacity bounds the
// run queue's length; 0 leaves it unbounded.
func NewWorkerPool(poolSize int, log *logrus.Entry, capacity int) *WorkerPool {
	if poolSize < 1 {
		panic(ErrInvalidArgument)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	p := &WorkerPool{
		size:         poolSize,
		capacity:     capacity,
		log:          log,
		acceptingNew: true,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < poolSize; i++ {
		workerID := i
		p.group.Go(func() error {
			p.workerLoop(workerID)
			return nil
		})
	}
	return p
}

func (p *WorkerPool) workerLoop(workerID int) {
	p.log.Debugf("worker %d started", workerID)
	defer p.log.Debugf("worker %d stopped", workerID)
	for {
		p.mu.Lock()
		for p.q.Len() == 0 && !p.cancelled {
			if p.shutdownRequested {
				p.mu.Unlock()
				return
			}
			p.cond.Wait()
		}
		if p.cancelled {
			p.mu.Unlock()
			return
		}
		task := p.q.PopFront()
		p.mu.Unlock()
		task.run()
	}
}

// Execute appends task to the run queue and wakes one worker. Returns
// ErrShutDown if the pool is no longer accepting new work.
func (p *WorkerPool) Execute(task runnable) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.acceptingNew {
		return ErrShutDown
	}
	if p.capacity > 0 && p.q.Len() >= p.capacity {
		return ErrQueueFull
	}
	p.q.PushBack(task)
	p.cond.Signal()
	return nil
}

// Shutdown stops accepting new work, lets the run queue drain normally,
// then the workers exit. It does not block; call Join to wait for the
// workers to actually stop.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	p.acceptingNew = false
	p.shutdownRequested = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// ShutdownNow cancels the workers immediately and returns every task still
// sitting in the run queue, i.e. handed to the pool but not yet started.
func (p *WorkerPool) ShutdownNow() []Task {
	p.mu.Lock()
	p.acceptingNew = false
	p.cancelled = true
	drained := make([]Task, 0, p.q.Len())
	for p.q.Len() > 0 {
		drained = append(drained, p.q.PopFront().(Task))
	}
	p.cond.Broadcast()
	p.mu.Unlock()
	return drained
}

// Join waits for every worker goroutine to exit.
func (p *WorkerPool) Join() error {
	return p.group.Wait()
}
