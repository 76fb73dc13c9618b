package libparc

import "errors"

// Error kinds surfaced across the scheduler's public API. Internal
// invariant violations (e.g. popping an empty delay queue) are not among
// these: they indicate corruption and are never expected to escape the
// package under the documented API, so they panic instead.
var (
	// ErrInvalidArgument is returned for out-of-range constructor arguments,
	// e.g. a pool size < 1 or a Never delay passed to Schedule.
	ErrInvalidArgument = errors.New("libparc: invalid argument")

	// ErrShutDown is returned by Execute/Submit/Schedule family calls made
	// after Shutdown or ShutdownNow, whatever the retention policies say
	// (those only govern tasks already queued), and by WorkerPool.Execute
	// once the pool has stopped accepting work.
	ErrShutDown = errors.New("libparc: scheduler is shut down")

	// ErrCancelled is surfaced by FutureTask.Get when the task was cancelled
	// before or during execution.
	ErrCancelled = errors.New("libparc: future task cancelled")

	// ErrTimeout is surfaced by FutureTask.Get when the bounded wait expires
	// before the task completes.
	ErrTimeout = errors.New("libparc: future task get timed out")

	// ErrExecutionFailed wraps the error returned by a user Callable; Get
	// returns an error wrapping both it and the original error, so either
	// can be matched with errors.Is or errors.As (errors.Unwrap returns nil
	// for such a multi-error wrap).
	ErrExecutionFailed = errors.New("libparc: future task execution failed")

	// ErrQueueFull is returned by Execute when the worker pool's run queue
	// has a configured capacity and is already at that limit.
	ErrQueueFull = errors.New("libparc: worker pool run queue is full")
)

// errEmpty is internal-only: PopFirst on an empty DelayQueue. Must never
// escape the package.
var errEmpty = errors.New("libparc: delay queue is empty")
