// Package cookie writes and reads HTTP cookies with shared attributes.
//
// A Manager writes every cookie with Path=/, HttpOnly, SameSite=Lax and the
// configured domain and Secure flag. With a secret of at least 32 bytes
// it can also sign values with HMAC-SHA256, binding each signature to the
// cookie name so a value cannot be replayed under another name:
//
//	m := cookie.New(cookie.WithSecret(cfg.Secret), cookie.WithSecure(true))
//	err := m.SetSignedJSON(w, "oauth_state", state, 600)
//	err = m.GetSignedJSON(r, "oauth_state", &state)
//
// Signed operations return ErrNoSecret when no usable secret is set.
package cookie
