package auth

import (
	"errors"
)

var (
	ErrKeysMissing    = errors.New("missing API key or secret key")
	ErrMalformedToken = errors.New("could not parse authorization token")
	ErrInvalidToken   = errors.New("invalid signature on authorization token")
)
