package authcore

import "context"

type contextKey uint8

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's IP for audit events emitted during the
// request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
