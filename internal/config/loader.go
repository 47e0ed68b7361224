package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Name is used for the config file, the config dir and the env prefix.
const Name = "soundboard"

// SearchDirs returns the directories searched for the config file, most
// specific first.
func SearchDirs() ([]string, error) {
	scope := gap.NewScope(gap.User, Name)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, Name)}, dirs...)
	}

	if c := os.Getenv("SOUNDBOARD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	return dirs, nil
}

// Setup points v at the config file search path.
func Setup(v *viper.Viper, dirs []string) {
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetConfigName(Name)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(Name)
	v.AutomaticEnv()
}

// Read reads the config file, tolerating a missing one.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("could not parse configuration file: %w", err)
		}
		log.Debug("No configuration file found")
		return nil
	}
	log.Debug("Using configuration file", "path", v.ConfigFileUsed())
	return nil
}

// Load builds the configuration from defaults, v and the environment.
func Load(v *viper.Viper) (Config, error) {
	cfg := LoadFromViper(v)

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromViper overlays the values set in v on the defaults.
func LoadFromViper(v *viper.Viper) Config {
	cfg := DefaultConfig()

	// Audio settings
	if v.IsSet("audio.sample_rate") {
		cfg.Audio.SampleRate = v.GetInt("audio.sample_rate")
	}
	if v.IsSet("audio.buffer_size") {
		cfg.Audio.BufferSize = v.GetDuration("audio.buffer_size")
	}
	if v.IsSet("audio.resample_quality") {
		cfg.Audio.ResampleQuality = v.GetInt("audio.resample_quality")
	}
	if v.IsSet("audio.volume") {
		cfg.Audio.Volume = v.GetFloat64("audio.volume")
	}
	if v.IsSet("audio.unlock") {
		cfg.Audio.Unlock = v.GetString("audio.unlock")
	}

	// Fetch settings
	if v.IsSet("fetch.timeout") {
		cfg.Fetch.Timeout = v.GetDuration("fetch.timeout")
	}
	if v.IsSet("fetch.requests_per_second") {
		cfg.Fetch.RequestsPerSecond = v.GetFloat64("fetch.requests_per_second")
	}
	if v.IsSet("fetch.max_bytes") {
		cfg.Fetch.MaxBytes = v.GetInt64("fetch.max_bytes")
	}

	// Board settings
	if v.IsSet("board.dir") {
		cfg.Board.Dir = v.GetString("board.dir")
	}
	if v.IsSet("board.spatial") {
		cfg.Board.Spatial = v.GetBool("board.spatial")
	}
	if v.IsSet("board.radius") {
		cfg.Board.Radius = v.GetFloat64("board.radius")
	}
	if v.IsSet("board.step") {
		cfg.Board.Step = v.GetFloat64("board.step")
	}
	if v.IsSet("board.distance_model") {
		cfg.Board.DistanceModel = v.GetString("board.distance_model")
	}
	if v.IsSet("board.mouse") {
		cfg.Board.Mouse = v.GetBool("board.mouse")
	}

	return cfg
}

// Watch reloads the configuration whenever the config file changes and
// hands valid results to onChange. Invalid edits are logged and skipped.
func Watch(v *viper.Viper, onChange func(Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(v)
		if err != nil {
			log.Warn("Ignoring invalid configuration change", "path", e.Name, "error", err)
			return
		}
		log.Info("Configuration reloaded", "path", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
}

// DefaultYAML renders the default configuration as a commented config
// file.
func DefaultYAML() string {
	d := DefaultConfig()
	return fmt.Sprintf(`# Output and playback
audio:
  # 44100 or 48000
  sample_rate: %d
  # device latency, 0 picks a platform default
  buffer_size: "%s"
  # resampler quality (1-64)
  resample_quality: %d
  # default volume for played sounds (0.0 to 2.0)
  volume: %.1f
  # keep idle-suspending devices awake: auto, always or never
  unlock: %q

# http(s) sources
fetch:
  timeout: "%s"
  requests_per_second: %g
  max_bytes: %d

# Interactive board
board:
  # directory listed by "soundboard board"
  dir: %q
  # place sounds around the listener
  spatial: %t
  # distance of the sounds from the origin
  radius: %g
  # listener movement per arrow key
  step: %g
  # inverse, linear or exponential
  distance_model: %q
  # mouse support
  mouse: %t
`,
		d.Audio.SampleRate, d.Audio.BufferSize, d.Audio.ResampleQuality, d.Audio.Volume, d.Audio.Unlock,
		d.Fetch.Timeout, d.Fetch.RequestsPerSecond, d.Fetch.MaxBytes,
		d.Board.Dir, d.Board.Spatial, d.Board.Radius, d.Board.Step, d.Board.DistanceModel, d.Board.Mouse)
}

// ParseYAML parses a config file over the defaults and validates it.
func ParseYAML(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
