// Package middlewares holds the global middleware of the service.
//
// Install them in this order so every later log line carries the request
// id and panics raised by the gate are still recovered:
//
//	web.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.Recover(),
//	    gate.Middleware(),
//	)
//
// The Gate decides, before routing, whether a request passes, is
// redirected (missing locale, login required, already signed in, admin
// only) or is refused with 401.
package middlewares
