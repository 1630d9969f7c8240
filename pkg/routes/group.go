// Package routes declares HTTP routes as nested groups and registers them
// on a ServeMux using method-qualified patterns.
package routes

import "net/http"

// Group organizes routes under a common prefix. Middleware applies to every
// route in the group and its children, outside any route-level middleware.
type Group struct {
	Prefix     string
	Routes     []Route
	Children   []Group
	Middleware []func(http.Handler) http.Handler
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, inherited []func(http.Handler) http.Handler, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	stack := append(append([]func(http.Handler) http.Handler{}, inherited...), group.Middleware...)

	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		h := route.handler()
		for i := len(stack) - 1; i >= 0; i-- {
			h = stack[i](h)
		}
		mux.Handle(pattern, h)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, stack, child)
	}
}
