package ui

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"

	"github.com/dgnsrekt/soundboard/internal/audio"
	"github.com/dgnsrekt/soundboard/internal/cache"
	"github.com/dgnsrekt/soundboard/internal/source"
	"github.com/dgnsrekt/soundboard/pkg/sound"
)

func silentDecoder() cache.Decoder {
	return cache.DecoderFunc(func(context.Context, source.Source) (*beep.Buffer, error) {
		buf := beep.NewBuffer(beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2})
		buf.Append(beep.Silence(44100))
		return buf, nil
	})
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("RIFF"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestModel(t *testing.T) (model, *sound.Session, *audio.MockBackend) {
	t.Helper()

	dir := t.TempDir()
	writeFiles(t, dir, "a.wav", "b.ogg")

	backend := audio.NewMockBackend(44100)
	cfg := sound.DefaultConfig()
	cfg.Unlock = "never"
	session, err := sound.New(cfg, sound.WithOpener(audio.MockOpener(backend)), sound.WithDecoder(silentDecoder()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = session.Close() })

	m := newModel(Config{
		Dir:     dir,
		Spatial: true,
		Radius:  2,
		Step:    0.5,
		Volume:  1,
		NoWatch: true,
	}, session)
	t.Cleanup(m.shutdown)

	files, err := listSounds(dir)
	if err != nil {
		t.Fatal(err)
	}
	updated, _ := m.Update(filesMsg(files))
	return updated.(model), session, backend
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestListSounds(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "boom.wav", "notes.txt", ".hidden.ogg", "click.flac", "song.mp3.zst")
	if err := os.Mkdir(filepath.Join(dir, "nested.wav"), 0o700); err != nil {
		t.Fatal(err)
	}

	files, err := listSounds(dir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.name)
	}
	want := []string{"boom.wav", "click.flac", "song.mp3.zst"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("listSounds() = %v, want %v", names, want)
	}

	if _, err := listSounds(filepath.Join(dir, "missing")); err == nil {
		t.Error("listSounds() on a missing dir should fail")
	}
}

func TestPlacement(t *testing.T) {
	tests := []struct {
		i, n  int
		wantX float64
		wantZ float64
	}{
		{0, 4, 0, -2},
		{1, 4, 2, 0},
		{2, 4, 0, 2},
		{3, 4, -2, 0},
		{0, 0, 0, -2},
	}

	for _, tt := range tests {
		x, z := placement(tt.i, tt.n, 2)
		if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(z-tt.wantZ) > 1e-9 {
			t.Errorf("placement(%d, %d) = (%v, %v), want (%v, %v)", tt.i, tt.n, x, z, tt.wantX, tt.wantZ)
		}
	}
}

func TestPlayKey(t *testing.T) {
	m, session, _ := newTestModel(t)

	_, cmd := m.Update(runes("1"))
	if cmd == nil {
		t.Fatal("pressing 1 should return a play command")
	}
	msg, ok := cmd().(playedMsg)
	if !ok || !msg.ok || msg.name != "a.wav" || msg.path != filepath.Join(m.cfg.Dir, "a.wav") {
		t.Fatalf("play command returned %#v", msg)
	}

	updated, _ := m.Update(msg)
	if last := updated.(model).last; last != msg.path {
		t.Errorf("last played = %q, want %q", last, msg.path)
	}

	sounds := session.Sounds()
	if len(sounds) != 1 || sounds[0].Tag() != filepath.Join(m.cfg.Dir, "a.wav") {
		t.Fatalf("session sounds = %v", sounds)
	}
	if !sounds[0].Positional() {
		t.Error("board sounds should be positional")
	}
	if !strings.Contains(m.View(), "▶") {
		t.Error("view should mark the playing sound")
	}

	// no third file
	if _, cmd := m.Update(runes("3")); cmd != nil {
		t.Error("pressing 3 with two files should do nothing")
	}
}

func TestStopKey(t *testing.T) {
	m, session, _ := newTestModel(t)

	_, cmd := m.Update(runes("2"))
	cmd()
	if len(session.Sounds()) != 1 {
		t.Fatal("expected a playing sound")
	}

	m.Update(runes("s"))
	if len(session.Sounds()) != 0 {
		t.Error("s should stop every sound")
	}
}

func TestListenerKeys(t *testing.T) {
	m, session, _ := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})

	p := session.Listener().Position
	if p.X != 1 || p.Z != -0.5 {
		t.Errorf("listener at %v, want (1, 0, -0.5)", p)
	}

	m.Update(runes("c"))
	if p := session.Listener().Position; p.X != 0 || p.Z != 0 {
		t.Errorf("c should center the listener, got %v", p)
	}
}

func TestFirstKeyResumesOutput(t *testing.T) {
	m, _, backend := newTestModel(t)

	m.Update(runes("?"))

	select {
	case <-m.resumed:
	case <-time.After(time.Second):
		t.Fatal("first key press did not resume output")
	}
	if backend.ResumeCount != 1 {
		t.Errorf("ResumeCount = %d, want 1", backend.ResumeCount)
	}
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if m.ctx.Err() == nil {
		t.Error("quitting should cancel in-flight loads")
	}
}

func TestViewListsFiles(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	for _, want := range []string{"a.wav", "b.ogg", "listener (0.0, 0.0, 0.0)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestStatusMessages(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, _ := m.Update(playedMsg{name: "a.wav", ok: false})
	m = updated.(model)
	if !m.statusErr || !strings.Contains(m.status, "a.wav") {
		t.Errorf("status = %q (err %v)", m.status, m.statusErr)
	}

	// a stale timeout leaves a newer message alone
	updated, _ = m.Update(statusMessageTimeoutMsg{seq: m.statusSeq - 1})
	m = updated.(model)
	if m.status == "" {
		t.Error("stale timeout cleared the status")
	}

	updated, _ = m.Update(statusMessageTimeoutMsg{seq: m.statusSeq})
	if updated.(model).status != "" {
		t.Error("timeout should clear the status")
	}
}

func TestSettingsReload(t *testing.T) {
	m, session, _ := newTestModel(t)

	updated, _ := m.Update(SettingsMsg{Spatial: false, Radius: 4, Step: 2, Volume: 0.5})
	m = updated.(model)
	if m.cfg.Step != 2 || m.cfg.Radius != 4 || m.cfg.Spatial {
		t.Fatalf("settings not applied: %+v", m.cfg)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if p := session.Listener().Position; p.X != -2 {
		t.Errorf("listener X = %v, want -2", p.X)
	}

	_, cmd := m.Update(runes("1"))
	cmd()
	sounds := session.Sounds()
	if len(sounds) != 1 || sounds[0].Positional() {
		t.Errorf("sounds after disabling spatial = %v", sounds)
	}
	if v := sounds[0].Volume(); v != 0.5 {
		t.Errorf("volume = %v, want 0.5", v)
	}
}
