package httpapi

import (
	"context"
	"net/http"
)

// shutdownCtx spans the process lifetime; main cancels it on shutdown so
// in-flight generations stop instead of outliving the listener.
var shutdownCtx = context.Background()

// SetBaseContext installs the process lifetime context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		shutdownCtx = context.Background()
		return
	}
	shutdownCtx = ctx
}

// requestContext derives a context for one handler invocation that ends
// when the client disconnects or the process shuts down, whichever is
// first. The returned cancel must be called when the handler returns.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(shutdownCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// clientGone reports whether the request or process context already ended,
// in which case there is no caller left to receive an error body.
func clientGone(r *http.Request) bool {
	return r.Context().Err() != nil || shutdownCtx.Err() != nil
}
