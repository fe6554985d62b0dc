package kit

import "context"

type (
	transportKey struct{}
	requestIDKey struct{}
)

// WithTransport records the surface a call came through: "http", "mcp" or "cli".
func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, transportKey{}, t)
}

// GetTransport returns the recorded transport, "cli" when none was set.
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(transportKey{}).(string); ok {
		return v
	}
	return "cli"
}

// WithRequestID attaches a request ID for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request ID, or "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}
