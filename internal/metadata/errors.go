package metadata

import "errors"

// ErrNoTokenInfo is returned when no metadata source knows the token.
var ErrNoTokenInfo = errors.New("no token info")
