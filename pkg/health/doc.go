// Package health serves liveness and readiness probes.
//
// Liveness always answers OK while the process runs. Readiness runs a set
// of named [Checks] concurrently and answers 503 when any of them fails:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "redis":    redis.Healthcheck(client),
//	}))
//
// Probes get plain text by default. Clients asking for JSON through the
// Accept header or ?format=json get a per-check report.
package health
