// Package auth serves the sign-in endpoints of session-token deployments.
//
//	GET  /api/auth/signin/{provider}     start an OAuth flow (google, github)
//	GET  /api/auth/callback/{provider}   finish it and start a session
//	POST /api/auth/signin/email          mail a one-time magic link
//	GET  /api/auth/callback/email        redeem the link and start a session
//	POST /api/auth/signout               revoke the session token
//	GET  /api/auth/session               the current identity, or {}
//
// Every successful sign-in upserts the user, ensures a FREE customer row and
// sets the session cookie issued by identity.Issuer.
package auth
