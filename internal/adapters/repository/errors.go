package repository

import "errors"

// Sentinel kinds for frame store errors.
var (
	ErrNotFound     = errors.New("no frames for chart")
	ErrInvalidLimit = errors.New("invalid history limit")
)
