package source

import "errors"

var (
	// ErrUnknownSource is returned for an unsupported source kind.
	ErrUnknownSource = errors.New("unknown source")
	// ErrRead wraps failures reading a source.
	ErrRead = errors.New("read source")
	// ErrNoHeader is returned for a CSV input without a header row.
	ErrNoHeader = errors.New("missing header row")
)
