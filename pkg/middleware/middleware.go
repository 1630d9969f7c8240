// Package middleware provides composable HTTP middleware: request ids,
// access logging, panic recovery, and CORS.
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware.
type System interface {
	Use(mw Func)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	fns []Func
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(fn Func) {
	s.fns = append(s.fns, fn)
}

// Apply wraps handler so the first registered middleware runs outermost.
func (s *stack) Apply(handler http.Handler) http.Handler {
	return Chain(handler, s.fns...)
}

// Chain wraps handler with fns, first outermost.
func Chain(handler http.Handler, fns ...Func) http.Handler {
	for i := len(fns) - 1; i >= 0; i-- {
		handler = fns[i](handler)
	}
	return handler
}
