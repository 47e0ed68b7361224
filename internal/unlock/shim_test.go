package unlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyAuto, false},
		{"auto", PolicyAuto, false},
		{"Always", PolicyAlways, false},
		{" never ", PolicyNever, false},
		{"sometimes", PolicyAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRequired(t *testing.T) {
	pulse := &audio.PlatformInfo{OS: audio.PlatformLinux, AudioSubsystem: audio.AudioSubsystemPulseAudio}
	alsa := &audio.PlatformInfo{OS: audio.PlatformLinux, AudioSubsystem: audio.AudioSubsystemALSA}

	tests := []struct {
		name     string
		policy   Policy
		platform *audio.PlatformInfo
		want     bool
	}{
		{"auto pulse", PolicyAuto, pulse, true},
		{"auto alsa", PolicyAuto, alsa, false},
		{"auto unknown", PolicyAuto, nil, false},
		{"always alsa", PolicyAlways, alsa, true},
		{"never pulse", PolicyNever, pulse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Required(tt.policy, tt.platform); got != tt.want {
				t.Errorf("Required() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShimLazyAndIdempotent(t *testing.T) {
	backend := audio.NewMockBackend(44100)
	shim := New(backend)

	if backend.PlayersCreated != 0 {
		t.Fatal("shim should not create a player before Resume")
	}

	for i := 0; i < 3; i++ {
		if err := shim.Resume(); err != nil {
			t.Fatalf("Resume() error: %v", err)
		}
	}
	if backend.PlayersCreated != 1 {
		t.Errorf("PlayersCreated = %d, want 1", backend.PlayersCreated)
	}
	if !shim.Active() {
		t.Error("shim should be active after Resume")
	}
	if shim.Starts() != 1 {
		t.Errorf("Starts() = %d, want 1", shim.Starts())
	}

	// The silent player only ever produces zeros.
	for _, frame := range backend.Pump(64) {
		if frame != [2]float64{} {
			t.Fatalf("unlock player produced %v, want silence", frame)
		}
	}
}

func TestShimRecreatesFailedPlayer(t *testing.T) {
	backend := audio.NewMockBackend(44100)
	backend.PlayErr = errors.New("device busy")
	shim := New(backend)

	if err := shim.Resume(); err == nil {
		t.Fatal("Resume() should report the player failure")
	}
	if shim.Active() {
		t.Error("failed player should be torn down")
	}
	if backend.PlayersClosed != 1 {
		t.Errorf("PlayersClosed = %d, want 1", backend.PlayersClosed)
	}

	backend.PlayErr = nil
	if err := shim.Resume(); err != nil {
		t.Fatalf("Resume() after recovery error: %v", err)
	}
	if backend.PlayersCreated != 2 {
		t.Errorf("PlayersCreated = %d, want 2", backend.PlayersCreated)
	}
	if !shim.Active() {
		t.Error("recreated player should be active")
	}
}

func TestShimClose(t *testing.T) {
	backend := audio.NewMockBackend(44100)
	shim := New(backend)

	if err := shim.Resume(); err != nil {
		t.Fatal(err)
	}
	if err := shim.Close(); err != nil {
		t.Fatal(err)
	}
	if len(backend.Players()) != 0 {
		t.Error("Close should release the player")
	}
	if err := shim.Resume(); !errors.Is(err, ErrShimClosed) {
		t.Errorf("Resume() after Close = %v, want ErrShimClosed", err)
	}
}

func TestOnFirstInteraction(t *testing.T) {
	trigger := NewTrigger()
	calls := make(chan struct{}, 4)

	done := OnFirstInteraction(context.Background(), trigger, func() error {
		calls <- struct{}{}
		return nil
	})

	trigger.Fire()
	trigger.Fire()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("resume was not called")
	}
	if len(calls) != 1 {
		t.Errorf("resume called %d times, want 1", len(calls))
	}
}

func TestOnFirstInteractionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := false
	done := OnFirstInteraction(ctx, NewTrigger(), func() error {
		called = true
		return nil
	})

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
	if called {
		t.Error("resume should not run without an interaction")
	}
}
