package source

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestSourceKinds(t *testing.T) {
	tests := []struct {
		name       string
		src        Source
		wantPath   bool
		wantRemote bool
	}{
		{"file", Path("sounds/click.wav"), true, false},
		{"http", Path("http://example.com/a.mp3"), true, true},
		{"https", Path("https://example.com/a.mp3"), true, true},
		{"bytes", Bytes([]byte{1, 2}, "a.wav"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.src.IsPath() != tt.wantPath {
				t.Errorf("IsPath() = %v, want %v", tt.src.IsPath(), tt.wantPath)
			}
			if tt.src.IsRemote() != tt.wantRemote {
				t.Errorf("IsRemote() = %v, want %v", tt.src.IsRemote(), tt.wantRemote)
			}
		})
	}

	if Bytes([]byte{1}, "").Key() != "" {
		t.Error("in-memory sources have no cache key")
	}
	if got := Bytes(make([]byte, 3), "").String(); got != "<3 bytes>" {
		t.Errorf("String() = %q", got)
	}
}

func TestFetchFile(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("RIFF----WAVEfmt ")

	plain := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(plain, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	packed := filepath.Join(dir, "a.wav.zst")
	if err := os.WriteFile(packed, compress(t, raw), 0o600); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(DefaultFetcherConfig())

	for _, p := range []string{plain, packed} {
		got, err := f.Fetch(context.Background(), Path(p))
		if err != nil {
			t.Fatalf("Fetch(%s) error: %v", p, err)
		}
		if !bytes.Equal(got, raw) {
			t.Errorf("Fetch(%s) = %q, want %q", p, got, raw)
		}
	}

	if _, err := f.Fetch(context.Background(), Path(filepath.Join(dir, "missing.wav"))); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFetchBytes(t *testing.T) {
	f := NewFetcher(DefaultFetcherConfig())
	raw := []byte("OggS....")

	got, err := f.Fetch(context.Background(), Bytes(compress(t, raw), "blip.ogg.zst"))
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("Fetch() = %q, want %q", got, raw)
	}

	if _, err := f.Fetch(context.Background(), Source{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("Fetch(empty) = %v, want ErrEmpty", err)
	}
}

func TestFetchRemote(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok.wav":
			_, _ = w.Write([]byte("RIFF"))
		case "/big.wav":
			_, _ = w.Write(make([]byte, 128))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := DefaultFetcherConfig()
	cfg.RequestsPerSecond = 0
	cfg.MaxBytes = 64
	f := NewFetcher(cfg)

	got, err := f.Fetch(context.Background(), Path(srv.URL+"/ok.wav"))
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(got) != "RIFF" {
		t.Errorf("Fetch() = %q", got)
	}

	if _, err := f.Fetch(context.Background(), Path(srv.URL+"/missing.wav")); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := f.Fetch(context.Background(), Path(srv.URL+"/big.wav")); err == nil {
		t.Error("expected error for oversized body")
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3", hits.Load())
	}
}

func TestFetchRemoteCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	f := NewFetcher(DefaultFetcherConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, Path(srv.URL+"/a.wav")); err == nil {
		t.Error("expected error for cancelled context")
	}
}
