package aggregate

import "errors"

// Sentinel kinds for aggregation errors.
var (
	ErrEmptyGroup     = errors.New("empty group")
	ErrUnknownReducer = errors.New("unknown reducer")
)
