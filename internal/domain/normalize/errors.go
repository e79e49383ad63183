package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrMalformedRow   = errors.New("malformed row")
	ErrMissingField   = errors.New("missing field")
	ErrInvalidWeekday = errors.New("invalid weekday")
)
