package libparc

import (
	"fmt"
	"sync/atomic"
	"time"
)

// PeriodMode selects how a periodic ScheduledTask's next occurrence is
// computed once the current one completes.
type PeriodMode int

const (
	// PeriodNone marks a one-shot task: it is never re-inserted.
	PeriodNone PeriodMode = iota
	// FixedRate anchors recurrences to the original schedule: the k-th
	// dispatch targets t0 + k*period, regardless of how long a run took.
	FixedRate
	// FixedDelay anchors recurrences to completion: the next deadline is
	// the previous run's completion instant plus the delay.
	FixedDelay
)

func (m PeriodMode) String() string {
	switch m {
	case FixedRate:
		return "FixedRate"
	case FixedDelay:
		return "FixedDelay"
	default:
		return "None"
	}
}

// sequenceCounter assigns a monotonically increasing insertion order to
// ScheduledTasks, used to break ties between equal execution times so the
// delay queue dispatches same-deadline tasks FIFO.
var sequenceCounter atomic.Uint64

func nextSequence() uint64 {
	return sequenceCounter.Add(1)
}

// scheduledTask is the type-erased, queue-internal binding of a runnable to
// an absolute execution instant. It is what the DelayQueue actually stores,
// so tasks of differing result types can share one ordered queue. Callers
// observe it only through the generic ScheduledTask[V] handle below.
type scheduledTask struct {
	task runnable

	executionTimeNs int64
	seq             uint64

	period     time.Duration
	periodMode PeriodMode

	// heapIndex is maintained by container/heap for O(log n) Remove; -1
	// means the task is not currently in a heap-backed queue.
	heapIndex int
}

func newScheduledTask(task runnable, executionTimeNs int64, period time.Duration, mode PeriodMode) *scheduledTask {
	return &scheduledTask{
		task:            task,
		executionTimeNs: executionTimeNs,
		seq:             nextSequence(),
		period:          period,
		periodMode:      mode,
		heapIndex:       -1,
	}
}

// less implements the delay queue's total order: ascending execution time,
// ties broken by insertion sequence (FIFO).
func (s *scheduledTask) less(other *scheduledTask) bool {
	if s.executionTimeNs != other.executionTimeNs {
		return s.executionTimeNs < other.executionTimeNs
	}
	return s.seq < other.seq
}

func (s *scheduledTask) isPeriodic() bool {
	return s.periodMode != PeriodNone
}

// advance moves a periodic task to its next occurrence after a run has
// completed, given the completion instant the worker observed
// (completionTimeNs; only FixedDelay anchors to it). The scheduledTask is
// mutated in place rather than replaced, so the caller-facing handle keeps
// observing the live occurrence: its ExecutionTime advances and Cancel can
// still find the entry in the delay queue. Returns false for a one-shot
// task. Must only be called while the task is out of the queue: the caller
// re-inserts it afterward, and the queue monitor's acquisition orders this
// write before any in-queue read.
func (s *scheduledTask) advance(completionTimeNs int64) bool {
	var next int64
	switch s.periodMode {
	case FixedRate:
		next = s.executionTimeNs + s.period.Nanoseconds()
	case FixedDelay:
		next = completionTimeNs + s.period.Nanoseconds()
	default:
		return false
	}
	// Atomic for ExecutionTime's sake: the handle reads it without the
	// queue monitor.
	atomic.StoreInt64(&s.executionTimeNs, next)
	s.seq = nextSequence()
	return true
}

// ScheduledTask is the caller-facing handle returned by Submit, Schedule,
// ScheduleAtFixedRate, and ScheduleWithFixedDelay. It lets a caller observe
// or cancel a task that may still be sitting in the delay queue, even
// though the queue itself is exclusively owned by the scheduler.
type ScheduledTask[V any] struct {
	future *FutureTask[V]
	core   *scheduledTask
	sched  *Scheduler
}

// Future returns the underlying FutureTask, for Get/IsDone/IsCancelled.
func (s *ScheduledTask[V]) Future() *FutureTask[V] {
	return s.future
}

// ExecutionTime returns the absolute instant (wall-clock, derived from the
// scheduler's own clock) this occurrence is targeted to run at. For a
// periodic task this is the *current* occurrence; it advances each time
// the task is re-inserted.
func (s *ScheduledTask[V]) ExecutionTime() time.Time {
	ns := atomic.LoadInt64(&s.core.executionTimeNs)
	return s.sched.clock.Epoch().Add(time.Duration(ns))
}

// Period returns the recurrence interval and mode; PeriodNone for a
// one-shot task.
func (s *ScheduledTask[V]) Period() (time.Duration, PeriodMode) {
	return s.core.period, s.core.periodMode
}

// Cancel cancels the underlying FutureTask and, if the scheduler's
// remove_on_cancel policy is enabled and the task is still queued, removes
// it from the delay queue synchronously. Returns whether the cancellation
// changed the task's state.
func (s *ScheduledTask[V]) Cancel(mayInterruptIfRunning bool) bool {
	changed := s.future.Cancel(mayInterruptIfRunning)
	if changed && s.sched != nil && s.sched.RemoveOnCancel() {
		s.sched.delayQueue.Remove(s.core)
	}
	return changed
}

func (s *ScheduledTask[V]) String() string {
	period, mode := s.Period()
	return fmt.Sprintf("ScheduledTask{execAt=%s, period=%s, mode=%s, state=%s}",
		s.ExecutionTime().Format(time.RFC3339Nano), period, mode, s.future.State())
}
