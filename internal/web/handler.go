package web

// Handler declares routes on a router.
//
// Example:
//
//	type BillingHandler struct {
//	    svc *billing.Service
//	}
//
//	func (h *BillingHandler) Routes(r web.Router) {
//	    r.POST("/api/stripe/create-session", h.createSession)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// A returned error is rendered by DefaultErrorHandler unless a response
// was already written.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect the request, short-circuit processing with a
// redirect or error, or enrich the context for later handlers.
type Middleware func(next HandlerFunc) HandlerFunc
