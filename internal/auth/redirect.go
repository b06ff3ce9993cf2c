package auth

import (
	"net/url"
	"strings"
)

// sameOrigin returns target as a path when it points at base's origin.
// Relative paths must be rooted and must not be protocol-relative.
func sameOrigin(base *url.URL, target string) (string, bool) {
	if target == "" || strings.ContainsAny(target, "\\\r\n") {
		return "", false
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	if u.Scheme == "" && u.Host == "" {
		if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
			return "", false
		}
		return u.RequestURI(), true
	}
	if base == nil || !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
		return "", false
	}
	return u.RequestURI(), true
}
