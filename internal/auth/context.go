package auth

import "context"

type callerKey struct{}

// WithCaller stores the authenticated user id on ctx.
func WithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFrom returns the authenticated user id, or "" for anonymous requests.
func CallerFrom(ctx context.Context) string {
	userID, _ := ctx.Value(callerKey{}).(string)
	return userID
}
