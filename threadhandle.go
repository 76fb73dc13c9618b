package libparc

import "context"

// threadHandle is a joinable, cooperatively cancellable goroutine, the
// package's stand-in for the original's pthread-backed thread handle. The
// scheduler's single dispatcher goroutine is started through it so
// ShutdownNow can both signal the dispatcher to stop and wait for it to
// actually exit before returning, and Join can wait for it after Shutdown.
type threadHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// goRun starts fn in a new goroutine, derived from parent, and returns a
// handle that can cancel and join it.
func goRun(parent context.Context, fn func(ctx context.Context)) *threadHandle {
	ctx, cancel := context.WithCancel(parent)
	h := &threadHandle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		fn(ctx)
	}()
	return h
}

// Cancel requests the goroutine stop; it does not wait for it to do so.
func (h *threadHandle) Cancel() {
	h.cancel()
}

// Join blocks until the goroutine has returned.
func (h *threadHandle) Join() {
	<-h.done
}
