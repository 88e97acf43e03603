package token

import "errors"

var (
	errSegments = errors.New("token must have three dot-separated segments")
	errNotText  = errors.New("payload is not UTF-8 text")
	errNoExp    = errors.New(`claim "exp" not found`)
	errNoScope  = errors.New(`claim "s" not found or not a number`)
)
