package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// Platform is an operating system the output knows how to tune for.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// AudioSubsystem is the sound server or driver behind the output device.
type AudioSubsystem string

const (
	AudioSubsystemALSA       AudioSubsystem = "alsa"
	AudioSubsystemPulseAudio AudioSubsystem = "pulseaudio"
	AudioSubsystemPipeWire   AudioSubsystem = "pipewire"
	AudioSubsystemCoreAudio  AudioSubsystem = "coreaudio"
	AudioSubsystemWASAPI     AudioSubsystem = "wasapi"
	AudioSubsystemNone       AudioSubsystem = "none"
)

// PlatformInfo decides the mock fallback, the unlock shim and the device
// buffer size.
type PlatformInfo struct {
	OS             Platform
	AudioSubsystem AudioSubsystem
	HasAudioDevice bool
	IsCI           bool
}

var ciEnv = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE"}

// IsCI reports whether the process runs where no one is listening, or
// SOUNDBOARD_MOCK_AUDIO asks for the mock output.
func IsCI() bool {
	if os.Getenv("SOUNDBOARD_MOCK_AUDIO") == "true" {
		return true
	}
	for _, v := range ciEnv {
		if val := os.Getenv(v); val != "" && val != "false" {
			return true
		}
	}
	return false
}

func DetectPlatform() *PlatformInfo {
	info := &PlatformInfo{OS: PlatformUnknown, AudioSubsystem: AudioSubsystemNone, IsCI: IsCI()}

	switch runtime.GOOS {
	case "linux":
		info.OS = PlatformLinux
		info.AudioSubsystem = linuxSoundServer()
		info.HasAudioDevice = linuxHasDevice()
	case "darwin":
		info.OS, info.AudioSubsystem, info.HasAudioDevice = PlatformDarwin, AudioSubsystemCoreAudio, true
	case "windows":
		info.OS, info.AudioSubsystem, info.HasAudioDevice = PlatformWindows, AudioSubsystemWASAPI, true
	}

	log.Debug("Platform detected", "os", info.OS, "audio", info.AudioSubsystem,
		"has_device", info.HasAudioDevice, "is_ci", info.IsCI)
	return info
}

// linuxSoundServer asks pactl first. PipeWire answers pactl too, so its
// server name is checked before PulseAudio's.
func linuxSoundServer() AudioSubsystem {
	if out, err := exec.Command("pactl", "info").Output(); err == nil {
		switch s := string(out); {
		case strings.Contains(s, "PipeWire"):
			return AudioSubsystemPipeWire
		case strings.Contains(s, "Server Name"):
			return AudioSubsystemPulseAudio
		}
	}
	if _, err := os.Stat("/proc/asound"); err == nil {
		return AudioSubsystemALSA
	}
	return AudioSubsystemNone
}

func linuxHasDevice() bool {
	entries, _ := os.ReadDir("/dev/snd")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "pcm") {
			return true
		}
	}
	out, err := exec.Command("pactl", "list", "short", "sinks").Output()
	return err == nil && len(out) > 0
}

// ShouldUseMockAudio reports whether no real device can be expected.
func (p *PlatformInfo) ShouldUseMockAudio() bool {
	return p.IsCI || p.AudioSubsystem == AudioSubsystemNone || !p.HasAudioDevice
}

// NeedsUnlock reports whether the output goes idle-suspended on this
// platform, clipping the start of the next sound. PulseAudio and PipeWire
// suspend idle sinks; CoreAudio drops Bluetooth routes back to low quality.
func (p *PlatformInfo) NeedsUnlock() bool {
	switch p.AudioSubsystem {
	case AudioSubsystemPulseAudio, AudioSubsystemPipeWire, AudioSubsystemCoreAudio:
		return true
	default:
		return false
	}
}

// BufferSizeMillis is the device buffer for the platform. Sound servers
// add their own latency, so they get a little more headroom.
func (p *PlatformInfo) BufferSizeMillis() int {
	switch {
	case p.OS == PlatformDarwin:
		return 100
	case p.OS == PlatformWindows:
		return 80
	case p.AudioSubsystem == AudioSubsystemPulseAudio || p.AudioSubsystem == AudioSubsystemPipeWire:
		return 60
	default:
		return 50
	}
}
