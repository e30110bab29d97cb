package progress

import "context"

// Func receives human-readable progress messages.
type Func func(msg string)

type progressKey struct{}

// With returns a context carrying the given progress callback.
func With(ctx context.Context, fn Func) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Report calls the progress callback in ctx, if any.
// With no callback set (MCP mode, tests) it does nothing.
func Report(ctx context.Context, msg string) {
	if fn, ok := ctx.Value(progressKey{}).(Func); ok && fn != nil {
		fn(msg)
	}
}
