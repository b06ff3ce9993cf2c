package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// maxHeaderLength caps how much of Accept-Language is parsed.
const maxHeaderLength = 4096

// Negotiator picks one of a fixed set of locales for a request.
// It is safe for concurrent use.
type Negotiator struct {
	supported []string
	def       string
	byIndex   []string
	matcher   language.Matcher
}

// New validates the locale set and builds the matcher.
// The default locale must be one of supported.
func New(supported []string, def string) (*Negotiator, error) {
	if len(supported) == 0 {
		return nil, ErrNoLocales
	}

	n := &Negotiator{def: def}
	// The matcher falls back to its first tag, so the default goes first.
	n.byIndex = append(n.byIndex, def)
	var tags []language.Tag
	seenDefault := false
	for _, s := range supported {
		tag, err := language.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLocale, s)
		}
		n.supported = append(n.supported, s)
		if s == def {
			seenDefault = true
			tags = append([]language.Tag{tag}, tags...)
			continue
		}
		tags = append(tags, tag)
		n.byIndex = append(n.byIndex, s)
	}
	if !seenDefault {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDefault, def)
	}
	n.matcher = language.NewMatcher(tags)
	return n, nil
}

// Negotiate returns the best supported locale for an Accept-Language
// header value, or the default when nothing matches.
func (n *Negotiator) Negotiate(acceptLanguage string) string {
	if len(acceptLanguage) > maxHeaderLength {
		acceptLanguage = acceptLanguage[:maxHeaderLength]
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return n.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return n.def
	}
	_, idx, conf := n.matcher.Match(tags...)
	if conf == language.No {
		return n.def
	}
	return n.byIndex[idx]
}

// FromPath returns the locale a path is prefixed with. A path is prefixed
// when it equals "/<locale>" or starts with "/<locale>/".
func (n *Negotiator) FromPath(path string) (string, bool) {
	for _, l := range n.supported {
		if path == "/"+l || strings.HasPrefix(path, "/"+l+"/") {
			return l, true
		}
	}
	return "", false
}

// Prefix returns path under the given locale. The root path maps to "/<locale>".
func (n *Negotiator) Prefix(path, locale string) string {
	if path == "" || path == "/" {
		return "/" + locale
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "/" + locale + path
}

// Supported returns a copy of the supported locales in configuration order.
func (n *Negotiator) Supported() []string {
	return append([]string(nil), n.supported...)
}

// Default returns the fallback locale.
func (n *Negotiator) Default() string { return n.def }
