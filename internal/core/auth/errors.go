package auth

import "github.com/rotisserie/eris"

// Authentication failures. Both map to UNAUTHENTICATED so callers cannot
// probe which keys exist.
var (
	ErrMissingCredentials = eris.New("API key required in x-api-key metadata")
	ErrInvalidKey         = eris.New("invalid API key")
)
