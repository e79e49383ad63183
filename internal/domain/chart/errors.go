package chart

import "errors"

// Sentinel kinds for chart errors.
var (
	ErrInvalidDefinition = errors.New("invalid chart definition")
)
