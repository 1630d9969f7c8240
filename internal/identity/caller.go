// Package identity resolves the authenticated caller of a request from a
// bearer token and carries it through the request context.
package identity

import "context"

// Caller is the identity attached to a request. The zero value is anonymous.
type Caller struct {
	Username string `json:"username"`
}

// Anonymous returns the unauthenticated caller.
func Anonymous() Caller {
	return Caller{}
}

// IsAnonymous reports whether no principal is attached.
func (c Caller) IsAnonymous() bool {
	return c.Username == ""
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// FromContext returns the caller stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}
