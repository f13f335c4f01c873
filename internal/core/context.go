package core

import "context"

type contextKey string

const (
	ctxKeyClientID  contextKey = "client_id"
	ctxKeyIPAddress contextKey = "ip_address"
)

// ContextWithClientID adds the recent-list owner to ctx.
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ctxKeyClientID, clientID)
}

// ContextWithIPAddress adds the caller's IP address to ctx for job logs.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ClientIDFromContext extracts the client ID from ctx.
func ClientIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientID).(string); ok {
		return v
	}
	return ""
}

// IPAddressFromContext extracts the IP address from ctx.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
