package httpapi

import (
	"context"
	"net/http"
)

// serverBaseCtx is canceled when the process starts shutting down. It ends
// pending admissions and open /events streams.
var serverBaseCtx = context.Background()

// SetBaseContext installs the shutdown context. nil restores Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context from a that is also canceled when b is
// done. Callers must call the returned cancel.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// runContext bounds how long a DAGRUN may wait for admission: until the
// client goes away, the server shuts down, or the run timeout elapses.
// Admitted runs finish regardless.
func runContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
	if runTimeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, runTimeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}
