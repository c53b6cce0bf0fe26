package model

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Error kinds surfaced by the lookup pipeline. Callers wrap them with
// eris.Wrap and match them with errors.Is.
var (
	ErrInvalidIdentifier = eris.New("invalid identifier")
	ErrAuthentication    = eris.New("authentication failure")
	ErrLookupNotFound    = eris.New("lookup not found")
	ErrUpstreamRequest   = eris.New("upstream request failure")
	ErrMalformedResponse = eris.New("malformed response")
)

// ErrorKind names the kind of err for display and metrics labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrLookupNotFound):
		return "not_found"
	case errors.Is(err, ErrUpstreamRequest):
		return "upstream"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "internal"
	}
}
