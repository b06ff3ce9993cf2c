// Package tokenstore records short-lived token identifiers.
//
// It backs two flows: revoked session tokens, which stay marked until
// they would have expired anyway, and one-time sign-in links, which are
// put when issued and consumed exactly once.
//
//	store := tokenstore.NewRedis(client, tokenstore.WithPrefix("saasfly"))
//	_ = store.Put(ctx, "link:"+jti, 24*time.Hour)
//	ok, _ := store.Consume(ctx, "link:"+jti) // true once, false after
//
// Memory is a process-local implementation for single-instance
// deployments and tests.
package tokenstore
