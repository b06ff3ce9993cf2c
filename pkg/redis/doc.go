// Package redis opens go-redis clients from a URL with connection retries.
//
//	client, err := redis.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Healthcheck adapts the client to the readiness probe signature.
package redis
