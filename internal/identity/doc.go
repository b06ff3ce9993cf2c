// Package identity resolves who is making a request.
//
// A deployment uses exactly one Provider. SessionProvider verifies the
// HS256 session tokens this service issues itself; ClerkProvider verifies
// RS256 tokens issued by Clerk. Both resolve any verification failure to
// an anonymous caller (a nil *Identity) and never return an error.
//
// Admin status is not part of any token. It is computed from an AdminList
// each time an identity is resolved.
package identity
