package libparc

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	uatomic "go.uber.org/atomic"
)

// Scheduler is a bounded-pool delayed/periodic task executor: a single
// dispatcher goroutine moves ready tasks out of a time-ordered DelayQueue
// and into a fixed-size WorkerPool.
//
// Lock ordering, should a caller ever need to reason about it: the only
// monitor a Scheduler method ever blocks on is the delay queue's, and it is
// never acquired while a second lock is held. The shutdown and policy flags
// below are atomics precisely so nextReady can consult them while holding
// the delay queue's monitor without nesting any other lock inside it.
type Scheduler struct {
	workerPool *WorkerPool
	delayQueue *DelayQueue
	clock      Clock
	log        *logrus.Entry

	dispatcher       *threadHandle
	runQueueCapacity int

	shutdown    uatomic.Bool
	shutdownNow uatomic.Bool

	// Periodic tasks popped from the queue but not yet through afterRun.
	// The dispatcher must not treat an empty queue as fully drained at
	// shutdown while one of these may still re-insert itself.
	periodicInFlight uatomic.Int64

	continueExistingPeriodicTasksAfterShutdown uatomic.Bool
	executeExistingDelayedTasksAfterShutdown   uatomic.Bool
	removeOnCancel                             uatomic.Bool
}

// SchedulerOption customizes a Scheduler at construction time.
type SchedulerOption func(*Scheduler)

// WithClock injects a Clock other than the system clock; intended for
// tests that need deterministic deadlines.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger attaches a logrus.Entry the scheduler and its worker pool log
// through, threading a single component logger down into every subordinate
// piece.
func WithLogger(log *logrus.Entry) SchedulerOption {
	return func(s *Scheduler) { s.log = log }
}

// WithRunQueueCapacity bounds the worker pool's run queue: once it holds
// this many dispatched-but-not-yet-started tasks, the pool rejects further
// dispatches with ErrQueueFull and the dispatcher drops those tasks,
// logging a warning; the Submit/Execute call that queued them has already
// returned and does not see the error. 0 (the default) leaves it unbounded.
func WithRunQueueCapacity(capacity int) SchedulerOption {
	return func(s *Scheduler) { s.runQueueCapacity = capacity }
}

// NewScheduler creates a Scheduler backed by poolSize worker goroutines and
// starts its dispatcher immediately. poolSize must be >= 1.
func NewScheduler(poolSize int, opts ...SchedulerOption) (*Scheduler, error) {
	if poolSize < 1 {
		return nil, ErrInvalidArgument
	}
	s := &Scheduler{
		delayQueue: NewDelayQueue(),
		clock:      NewSystemClock(),
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	s.removeOnCancel.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	s.workerPool = NewWorkerPool(poolSize, s.log.WithField("component", "workerpool"), s.runQueueCapacity)
	s.dispatcher = goRun(context.Background(), s.dispatchLoop)
	return s, nil
}

// dispatchedTask wraps a queue-internal scheduledTask so WorkerPool can run
// it without knowing about periodic re-scheduling: run() defers back into
// the scheduler once the underlying task's callable returns.
type dispatchedTask struct {
	st    *scheduledTask
	sched *Scheduler
}

func (d *dispatchedTask) run() {
	d.st.task.run()
	d.sched.afterRun(d.st)
}
func (d *dispatchedTask) cancel(mayInterruptIfRunning bool) bool {
	return d.st.task.cancel(mayInterruptIfRunning)
}
func (d *dispatchedTask) isDone() bool      { return d.st.task.isDone() }
func (d *dispatchedTask) isCancelled() bool { return d.st.task.isCancelled() }
func (d *dispatchedTask) state() State      { return d.st.task.state() }

// IsDone, IsCancelled, and State let a dispatchedTask also satisfy Task, so
// WorkerPool.ShutdownNow's type assertion succeeds whether it drains a bare
// FutureTask (direct WorkerPool use) or a dispatchedTask wrapper (scheduler
// use).
func (d *dispatchedTask) IsDone() bool      { return d.st.task.isDone() }
func (d *dispatchedTask) IsCancelled() bool { return d.st.task.isCancelled() }
func (d *dispatchedTask) State() State      { return d.st.task.state() }

var (
	_ runnable = (*dispatchedTask)(nil)
	_ Task     = (*dispatchedTask)(nil)
)

// afterRun re-inserts a periodic task's next occurrence once its current
// run has completed. A cancelled task, or a periodic task whose schedule
// was dropped by shutdown policy, is never reinserted. Either way the
// in-flight count drops and the dispatcher is notified, so a draining
// dispatcher can re-evaluate whether anything is left worth waiting for.
func (s *Scheduler) afterRun(st *scheduledTask) {
	if !st.isPeriodic() {
		return
	}
	reinsert := !st.task.isCancelled() &&
		(!s.isShuttingDown() || s.ContinueExistingPeriodicTasksAfterShutdown())
	if reinsert {
		if r, ok := st.task.(resettable); ok {
			r.reset()
		}
		reinsert = st.advance(s.clock.NowNanos())
	}
	s.delayQueue.Lock()
	if reinsert {
		s.delayQueue.Add(st)
	}
	s.periodicInFlight.Dec()
	s.delayQueue.Notify()
	s.delayQueue.Unlock()
}

func (s *Scheduler) isShuttingDown() bool {
	return s.shutdown.Load() || s.shutdownNow.Load()
}

func (s *Scheduler) shouldRunDuringShutdown(st *scheduledTask) bool {
	if st.isPeriodic() {
		return s.ContinueExistingPeriodicTasksAfterShutdown()
	}
	return s.ExecuteExistingDelayedTasksAfterShutdown()
}

// nextReady blocks, holding the delay queue's monitor across the whole
// decision, until either a task's deadline has elapsed (returned, popped),
// or the scheduler is done and has nothing left to wait for (ok=false).
func (s *Scheduler) nextReady(ctx context.Context) (st *scheduledTask, ok bool) {
	s.delayQueue.Lock()
	defer s.delayQueue.Unlock()
	for {
		if ctx.Err() != nil {
			return nil, false
		}
		shuttingDown := s.isShuttingDown()
		if shuttingDown && s.delayQueue.Size() == 0 && s.periodicInFlight.Load() == 0 {
			return nil, false
		}
		head := s.delayQueue.PeekFirst()
		if head == nil {
			s.delayQueue.Wait()
			continue
		}
		if shuttingDown && !s.shouldRunDuringShutdown(head) {
			s.delayQueue.PopFirst()
			head.task.cancel(false)
			continue
		}
		delay := head.executionTimeNs - s.clock.NowNanos()
		if delay <= 0 {
			return s.delayQueue.PopFirst(), true
		}
		s.delayQueue.WaitFor(delay)
	}
}

// dispatchLoop is the single dispatcher goroutine: pop whatever just became
// ready, hand it to the worker pool, repeat. It never executes a callable
// itself.
func (s *Scheduler) dispatchLoop(ctx context.Context) {
	for {
		st, ok := s.nextReady(ctx)
		if !ok {
			return
		}
		if st.isPeriodic() {
			s.periodicInFlight.Inc()
		}
		if err := s.workerPool.Execute(&dispatchedTask{st: st, sched: s}); err != nil {
			s.log.WithError(err).Warn("dropping task: worker pool rejected it")
			if st.isPeriodic() {
				s.periodicInFlight.Dec()
			}
		}
	}
}

// --- shutdown policy accessors ---

func (s *Scheduler) ContinueExistingPeriodicTasksAfterShutdown() bool {
	return s.continueExistingPeriodicTasksAfterShutdown.Load()
}

func (s *Scheduler) SetContinueExistingPeriodicTasksAfterShutdown(v bool) {
	s.continueExistingPeriodicTasksAfterShutdown.Store(v)
}

func (s *Scheduler) ExecuteExistingDelayedTasksAfterShutdown() bool {
	return s.executeExistingDelayedTasksAfterShutdown.Load()
}

func (s *Scheduler) SetExecuteExistingDelayedTasksAfterShutdown(v bool) {
	s.executeExistingDelayedTasksAfterShutdown.Store(v)
}

// RemoveOnCancel reports whether cancelling a queued ScheduledTask also
// removes it from the delay queue immediately, rather than leaving it to be
// popped and discarded at its original deadline.
func (s *Scheduler) RemoveOnCancel() bool {
	return s.removeOnCancel.Load()
}

func (s *Scheduler) SetRemoveOnCancel(v bool) {
	s.removeOnCancel.Store(v)
}

// --- submission API ---
//
// These are free functions, not methods, because Go does not allow a
// generic method on a non-generic receiver: Scheduler itself stays
// concrete so it can be stored, passed, and embedded without its callers
// having to carry a type parameter they don't care about.

func (s *Scheduler) enqueue(st *scheduledTask, future interface {
	markScheduled()
}) error {
	if s.isShuttingDown() {
		return ErrShutDown
	}
	s.delayQueue.Lock()
	s.delayQueue.Add(st)
	future.markScheduled()
	s.delayQueue.Notify()
	s.delayQueue.Unlock()
	return nil
}

// Submit schedules callable to run as soon as a worker is free.
func Submit[V any](s *Scheduler, callable Callable[V]) (*ScheduledTask[V], error) {
	future := NewFutureTask(callable)
	st := newScheduledTask(future, s.clock.NowNanos(), 0, PeriodNone)
	if err := s.enqueue(st, future); err != nil {
		return nil, err
	}
	return &ScheduledTask[V]{future: future, core: st, sched: s}, nil
}

// Schedule runs callable once, after delay elapses. delay must not be
// Never; use Submit for an immediate run.
func Schedule[V any](s *Scheduler, callable Callable[V], delay Timeout) (*ScheduledTask[V], error) {
	if delay.IsNever() {
		return nil, ErrInvalidArgument
	}
	future := NewFutureTask(callable)
	st := newScheduledTask(future, s.clock.NowNanos()+int64(delay.InNanoseconds()), 0, PeriodNone)
	if err := s.enqueue(st, future); err != nil {
		return nil, err
	}
	return &ScheduledTask[V]{future: future, core: st, sched: s}, nil
}

// ScheduleAtFixedRate runs callable repeatedly, every period, anchored to
// the original schedule: a slow run does not push later occurrences back.
// period must be positive.
func ScheduleAtFixedRate[V any](s *Scheduler, callable Callable[V], initialDelay Timeout, period time.Duration) (*ScheduledTask[V], error) {
	return scheduleRecurring(s, callable, initialDelay, period, FixedRate)
}

// ScheduleWithFixedDelay runs callable repeatedly, with period elapsing
// between one run's completion and the next one's start. period must be
// positive.
func ScheduleWithFixedDelay[V any](s *Scheduler, callable Callable[V], initialDelay Timeout, period time.Duration) (*ScheduledTask[V], error) {
	return scheduleRecurring(s, callable, initialDelay, period, FixedDelay)
}

func scheduleRecurring[V any](s *Scheduler, callable Callable[V], initialDelay Timeout, period time.Duration, mode PeriodMode) (*ScheduledTask[V], error) {
	if period <= 0 || initialDelay.IsNever() {
		return nil, ErrInvalidArgument
	}
	future := NewFutureTask(callable)
	st := newScheduledTask(future, s.clock.NowNanos()+int64(initialDelay.InNanoseconds()), period, mode)
	if err := s.enqueue(st, future); err != nil {
		return nil, err
	}
	return &ScheduledTask[V]{future: future, core: st, sched: s}, nil
}

// Execute is fire-and-forget: fn runs as soon as a worker is free and its
// outcome is discarded. It is the scheduler's analogue of
// java.util.concurrent.Executor.execute(Runnable).
func Execute(s *Scheduler, fn func()) error {
	_, err := Submit(s, func(_ <-chan struct{}) (struct{}, error) {
		fn()
		return struct{}{}, nil
	})
	return err
}

// GetQueue returns a point-in-time snapshot of the tasks still waiting in
// the delay queue, ordered ascending by deadline. The descriptor fields are
// copied under the queue's monitor; only the Task handle stays a live
// reference, so QueuedTaskInfo.Task reports current state.
func (s *Scheduler) GetQueue() []QueuedTaskInfo {
	epoch := s.clock.Epoch()
	s.delayQueue.Lock()
	defer s.delayQueue.Unlock()
	ordered := s.delayQueue.ordered()
	out := make([]QueuedTaskInfo, 0, len(ordered))
	for _, st := range ordered {
		out = append(out, QueuedTaskInfo{
			ExecutionTime: epoch.Add(time.Duration(st.executionTimeNs)),
			Period:        st.period,
			PeriodMode:    st.periodMode,
			Task:          st.task.(Task),
		})
	}
	return out
}

// QueuedTaskInfo is a read-only view of one entry in GetQueue's snapshot.
type QueuedTaskInfo struct {
	ExecutionTime time.Time
	Period        time.Duration
	PeriodMode    PeriodMode
	Task          Task
}

// Shutdown stops accepting new submissions and stops the dispatcher once
// the delay queue has nothing left worth running, honoring the
// ExecuteExistingDelayedTasksAfterShutdown and
// ContinueExistingPeriodicTasksAfterShutdown policies for what "worth
// running" means. It does not block; call Join to wait for full drain.
func (s *Scheduler) Shutdown() {
	s.shutdown.Store(true)
	s.delayQueue.Lock()
	s.delayQueue.NotifyAll()
	s.delayQueue.Unlock()
	// The worker pool must keep accepting dispatches until the dispatcher
	// itself has finished draining the delay queue under the shutdown
	// policy; only then does it stop taking new work and drain what it
	// already has.
	go func() {
		s.dispatcher.Join()
		s.workerPool.Shutdown()
	}()
}

// ShutdownNow stops the dispatcher and the worker pool immediately,
// cancelling every task still in the delay queue and returning, alongside
// them, every task the worker pool had accepted but not yet started. The
// dispatcher is joined before the worker pool is drained, so no dispatch
// can race into the pool after the drain. Like
// java.util.concurrent.ExecutorService.shutdownNow, type information is
// lost: callers get back Task handles, not typed ScheduledTask[V].
func (s *Scheduler) ShutdownNow() []Task {
	s.shutdownNow.Store(true)

	s.delayQueue.Lock()
	var undispatched []Task
	for s.delayQueue.Size() > 0 {
		st := s.delayQueue.PopFirst()
		st.task.cancel(true)
		undispatched = append(undispatched, st.task.(Task))
	}
	s.delayQueue.Unlock()

	// The cancellation must be observable before the wakeup: a dispatcher
	// notified first could go back to waiting and never be woken again.
	s.dispatcher.Cancel()
	s.delayQueue.Lock()
	s.delayQueue.NotifyAll()
	s.delayQueue.Unlock()
	s.dispatcher.Join()

	undispatched = append(undispatched, s.workerPool.ShutdownNow()...)
	return undispatched
}

// Join blocks until the dispatcher goroutine and every worker goroutine
// have exited, which happens once Shutdown or ShutdownNow has fully taken
// effect.
func (s *Scheduler) Join() error {
	s.dispatcher.Join()
	return s.workerPool.Join()
}

// IsShutdown reports whether Shutdown or ShutdownNow has been called.
func (s *Scheduler) IsShutdown() bool {
	return s.isShuttingDown()
}

func (s *Scheduler) String() string {
	s.delayQueue.Lock()
	queued := s.delayQueue.Size()
	s.delayQueue.Unlock()
	return fmt.Sprintf("Scheduler{queued=%d, shutdown=%v, shutdownNow=%v}", queued, s.shutdown.Load(), s.shutdownNow.Load())
}
