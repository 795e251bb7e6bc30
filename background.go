package relay

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const detachedTaskTimeout = 90 * time.Second

// detach runs fn after the webhook response is written. Delivery is
// best-effort: the host may recycle the process before fn finishes. fn gets
// its own timeout context and may not panic the worker.
func (r *Relay) detach(name string, fn func(context.Context)) {
	r.tasks.Add(1)
	go func() {
		defer r.tasks.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("Detached task panicked",
					zap.String("Task", name),
					zap.Any("Panic", rec),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), detachedTaskTimeout)
		defer cancel()
		fn(ctx)
	}()
}
