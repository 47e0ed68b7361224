// Package source locates encoded audio: local files, http(s) URLs or bytes
// already in memory. Payloads whose name ends in .zst are transparently
// decompressed, and remote fetches share a rate limiter.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/time/rate"
)

// ErrEmpty is returned for a Source with neither a location nor data.
var ErrEmpty = errors.New("empty audio source")

// Source is encoded audio, either by location or in memory.
type Source struct {
	// Path is a file path or an http(s) URL.
	Path string
	// Data holds encoded bytes when Path is empty.
	Data []byte
	// Name is an optional hint (e.g. "click.ogg") for in-memory data.
	Name string
}

// Path returns a Source for a file path or URL.
func Path(p string) Source { return Source{Path: p} }

// Bytes returns a Source for encoded data held in memory.
func Bytes(data []byte, name string) Source { return Source{Data: data, Name: name} }

// IsPath reports whether s is fetched by location.
func (s Source) IsPath() bool { return s.Path != "" }

// IsRemote reports whether s is an http(s) URL.
func (s Source) IsRemote() bool {
	return strings.HasPrefix(s.Path, "http://") || strings.HasPrefix(s.Path, "https://")
}

// Key is the cache key a path-like source is stored under.
func (s Source) Key() string {
	if !s.IsPath() || s.IsRemote() {
		return s.Path
	}
	if p, err := homedir.Expand(s.Path); err == nil {
		return p
	}
	return s.Path
}

// NameHint returns the best name for format sniffing.
func (s Source) NameHint() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Name
}

func (s Source) String() string {
	if s.IsPath() {
		return s.Path
	}
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("<%d bytes>", len(s.Data))
}

// FetcherConfig tunes remote fetching.
type FetcherConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables limiting
	MaxBytes          int64   // <= 0 disables the cap
}

// DefaultFetcherConfig returns the default fetcher configuration.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:           30 * time.Second,
		RequestsPerSecond: 8,
		MaxBytes:          64 << 20,
	}
}

// Fetcher loads the encoded bytes of a Source.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewFetcher creates a fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		maxBytes: cfg.MaxBytes,
	}
	if cfg.RequestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return f
}

// Fetch returns the encoded, decompressed bytes of s.
func (f *Fetcher) Fetch(ctx context.Context, s Source) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case s.IsRemote():
		data, err = f.fetchRemote(ctx, s.Path)
	case s.IsPath():
		data, err = f.readFile(s.Key())
	case len(s.Data) > 0:
		data = s.Data
	default:
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(s.NameHint()), ".zst") {
		return decompress(data)
	}
	return data, nil
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return data, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch of %s cancelled: %w", url, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", url, err)
	}

	log.Debug("Fetching audio", "url", url)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to get url: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d for %s", resp.StatusCode, url)
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response from %s: %w", url, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", url, f.maxBytes)
	}
	return data, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress source: %w", err)
	}
	return out, nil
}
