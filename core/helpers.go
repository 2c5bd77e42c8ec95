package orchestration

import "context"

// withContextCancelHook derives a context that is additionally cancelled when
// closeCh closes. The returned detach func releases the watcher goroutine and
// must be called when the hook is no longer needed.
func withContextCancelHook(parent context.Context, closeCh <-chan struct{}) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		select {
		case <-closeCh:
			cancel()
		case <-done:
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		close(done)
		cancel()
	}
}
