package audio

import (
	"runtime"
	"testing"
)

// TestBackendConfig tests the backend configuration validation.
func TestBackendConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    BackendConfig
		expectErr bool
	}{
		{"valid 44100Hz", BackendConfig{SampleRate: 44100}, false},
		{"valid 48000Hz with buffer", BackendConfig{SampleRate: 48000, BufferSize: 50_000_000}, false},
		{"invalid sample rate", BackendConfig{SampleRate: 22050}, true},
		{"negative buffer", BackendConfig{SampleRate: 44100, BufferSize: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr && err == nil {
				t.Errorf("Validate() expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}

	if err := DefaultBackendConfig().Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestDetectPlatform(t *testing.T) {
	platform := DetectPlatform()
	t.Logf("%+v", platform)

	expectedOS := PlatformUnknown
	switch runtime.GOOS {
	case "linux":
		expectedOS = PlatformLinux
	case "darwin":
		expectedOS = PlatformDarwin
	case "windows":
		expectedOS = PlatformWindows
	}
	if platform.OS != expectedOS {
		t.Errorf("Platform OS mismatch: got %s, expected %s", platform.OS, expectedOS)
	}

	if platform.OS == PlatformUnknown && !platform.ShouldUseMockAudio() {
		t.Error("an unknown platform should fall back to mock audio")
	}

	if platform.BufferSizeMillis() <= 0 {
		t.Errorf("BufferSizeMillis() = %d, want > 0", platform.BufferSizeMillis())
	}
}

func TestPlatformDecisions(t *testing.T) {
	tests := []struct {
		name       string
		info       PlatformInfo
		wantMock   bool
		wantUnlock bool
	}{
		{"ci", PlatformInfo{OS: PlatformLinux, AudioSubsystem: AudioSubsystemALSA, HasAudioDevice: true, IsCI: true}, true, false},
		{"no subsystem", PlatformInfo{OS: PlatformLinux, AudioSubsystem: AudioSubsystemNone, HasAudioDevice: true}, true, false},
		{"no device", PlatformInfo{OS: PlatformLinux, AudioSubsystem: AudioSubsystemALSA}, true, false},
		{"alsa", PlatformInfo{OS: PlatformLinux, AudioSubsystem: AudioSubsystemALSA, HasAudioDevice: true}, false, false},
		{"pulseaudio", PlatformInfo{OS: PlatformLinux, AudioSubsystem: AudioSubsystemPulseAudio, HasAudioDevice: true}, false, true},
		{"pipewire", PlatformInfo{OS: PlatformLinux, AudioSubsystem: AudioSubsystemPipeWire, HasAudioDevice: true}, false, true},
		{"darwin", PlatformInfo{OS: PlatformDarwin, AudioSubsystem: AudioSubsystemCoreAudio, HasAudioDevice: true}, false, true},
		{"windows", PlatformInfo{OS: PlatformWindows, AudioSubsystem: AudioSubsystemWASAPI, HasAudioDevice: true}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.ShouldUseMockAudio(); got != tt.wantMock {
				t.Errorf("ShouldUseMockAudio() = %v, want %v", got, tt.wantMock)
			}
			if got := tt.info.NeedsUnlock(); got != tt.wantUnlock {
				t.Errorf("NeedsUnlock() = %v, want %v", got, tt.wantUnlock)
			}
		})
	}
}

func TestIsCIFromEnv(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("CONTINUOUS_INTEGRATION", "")
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("GITLAB_CI", "")
	t.Setenv("JENKINS_URL", "")
	t.Setenv("BUILDKITE", "")
	t.Setenv("DRONE", "")
	t.Setenv("SOUNDBOARD_MOCK_AUDIO", "true")

	if !IsCI() {
		t.Error("IsCI() = false with SOUNDBOARD_MOCK_AUDIO=true")
	}

	t.Setenv("SOUNDBOARD_MOCK_AUDIO", "")
	t.Setenv("CI", "false")
	if IsCI() {
		t.Error("IsCI() = true with CI=false")
	}
}

func TestBufferSizeMillis(t *testing.T) {
	tests := []struct {
		info PlatformInfo
		want int
	}{
		{PlatformInfo{OS: PlatformDarwin, AudioSubsystem: AudioSubsystemCoreAudio}, 100},
		{PlatformInfo{OS: PlatformWindows, AudioSubsystem: AudioSubsystemWASAPI}, 80},
		{PlatformInfo{OS: PlatformLinux, AudioSubsystem: AudioSubsystemPipeWire}, 60},
		{PlatformInfo{OS: PlatformLinux, AudioSubsystem: AudioSubsystemALSA}, 50},
		{PlatformInfo{OS: PlatformUnknown, AudioSubsystem: AudioSubsystemNone}, 50},
	}

	for _, tt := range tests {
		if got := tt.info.BufferSizeMillis(); got != tt.want {
			t.Errorf("BufferSizeMillis(%s/%s) = %d, want %d", tt.info.OS, tt.info.AudioSubsystem, got, tt.want)
		}
	}
}
