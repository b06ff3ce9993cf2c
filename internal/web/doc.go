// Package web is the HTTP kernel of the saasfly server.
//
// It wraps a chi router with a small handler model: handlers receive a
// Context and return an error, middleware wraps HandlerFunc values, and
// DefaultErrorHandler turns returned errors into JSON responses.
//
//	app := web.New(
//	    web.WithLogger(log),
//	    web.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    web.WithHandlers(billingHandler, rpcRouter),
//	)
//	err := app.Run(ctx, ":3000", web.ShutdownHook(closeStore))
//
// The request Context exposes the identity and locale resolved by the
// request gate, so handlers never re-parse credentials.
package web
