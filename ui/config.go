package ui

import "github.com/dgnsrekt/soundboard/pkg/sound"

// Config contains board-specific configuration.
type Config struct {
	// Directory whose sounds are listed
	Dir string

	// Place sounds on a circle around the origin
	Spatial       bool
	Radius        float64
	DistanceModel sound.DistanceModel

	// Listener movement per arrow key
	Step float64

	// Volume for every played sound
	Volume float64

	EnableMouse bool

	// For debugging the UI
	AltScreen bool `env:"SOUNDBOARD_ALT_SCREEN" envDefault:"true"`
	NoWatch   bool `env:"SOUNDBOARD_NO_WATCH"`
}
