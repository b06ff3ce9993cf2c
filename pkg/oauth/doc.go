// Package oauth signs users in with third-party OAuth 2.0 providers.
//
// Google and GitHub are supported. Each provider exchanges an
// authorization code for a token and then reads a verified email address
// from the provider's API; accounts without one are rejected with
// ErrEmailNotVerified.
//
//	google, _ := oauth.NewGoogleProvider(cfg.Google)
//	reg := oauth.NewRegistry(google)
//	p, err := reg.Lookup("google")
//	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
//
// WithEndpoint and WithAPIBase point a provider at a fake server in tests.
package oauth
