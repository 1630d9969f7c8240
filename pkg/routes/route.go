package routes

import (
	"net/http"

	"github.com/JaimeStill/promptdex/pkg/middleware"
)

// Route binds an HTTP method and pattern to a handler. Middleware, when set,
// wraps only this route, first outermost.
type Route struct {
	Method     string
	Pattern    string
	Handler    http.HandlerFunc
	Middleware []middleware.Func
}

func (r Route) handler() http.Handler {
	return middleware.Chain(r.Handler, r.Middleware...)
}
