package locale

import "errors"

var (
	ErrNoLocales          = errors.New("locale: no supported locales")
	ErrInvalidLocale      = errors.New("locale: invalid locale tag")
	ErrUnsupportedDefault = errors.New("locale: default locale is not supported")
)
