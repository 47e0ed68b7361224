package sound

import (
	"errors"

	"github.com/dgnsrekt/soundboard/internal/decode"
	"github.com/dgnsrekt/soundboard/internal/source"
)

// Common errors for the sound session.
var (
	// Engine errors
	ErrEngineUnavailable = errors.New("audio engine is not available")
	ErrSessionClosed     = errors.New("sound session has been closed")

	// Source errors
	ErrUnsupportedFormat = decode.ErrUnsupportedFormat
	ErrEmptySource       = source.ErrEmpty

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid sound configuration")
)
