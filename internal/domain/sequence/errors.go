package sequence

import "errors"

// Sentinel kinds for sequence errors.
var (
	ErrEmptySequence = errors.New("empty sequence")
)
