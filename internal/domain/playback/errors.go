package playback

import (
	"errors"

	"github.com/okian/aqframes/internal/domain/sequence"
)

// Sentinel kinds for playback errors.
var (
	// ErrEmptySequence is returned when a chart has no periods to play.
	ErrEmptySequence = sequence.ErrEmptySequence
	ErrRender        = errors.New("render failed")
)
