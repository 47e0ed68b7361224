// Package decode turns encoded audio into PCM buffers ready for mixing. WAV,
// MP3, Ogg Vorbis and FLAC are recognised by their magic bytes, falling back
// to the file extension. Buffers are resampled to the engine rate once, at
// decode time, so playback never resamples for format reasons.
package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/dgnsrekt/soundboard/internal/source"
)

// ErrUnsupportedFormat is returned when no decoder recognises the data.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format is a container format.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatVorbis  Format = "vorbis"
	FormatFLAC    Format = "flac"
)

// Sniff identifies the container of data. name is used when the magic bytes
// are inconclusive; a trailing .zst is ignored.
func Sniff(data []byte, name string) Format {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 4 && string(data[:4]) == "fLaC":
		return FormatFLAC
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return FormatVorbis
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}

	name = strings.TrimSuffix(strings.ToLower(name), ".zst")
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch path.Ext(name) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	case ".ogg", ".oga":
		return FormatVorbis
	case ".flac":
		return FormatFLAC
	}
	return FormatUnknown
}

// Bytes decodes data to a stereo buffer at rate target.
func Bytes(data []byte, name string, target beep.SampleRate, quality int) (*beep.Buffer, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	r := bytes.NewReader(data)
	kind := Sniff(data, name)
	switch kind {
	case FormatWAV:
		streamer, format, err = wav.Decode(r)
	case FormatMP3:
		streamer, format, err = mp3.Decode(io.NopCloser(r))
	case FormatVorbis:
		streamer, format, err = vorbis.Decode(io.NopCloser(r))
	case FormatFLAC:
		streamer, format, err = flac.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s as %s: %w", name, kind, err)
	}
	defer streamer.Close() //nolint:errcheck

	var s beep.Streamer = streamer
	if format.SampleRate != target {
		s = beep.Resample(quality, format.SampleRate, target, streamer)
	}

	precision := format.Precision
	if precision < 2 {
		precision = 2
	}
	buf := beep.NewBuffer(beep.Format{SampleRate: target, NumChannels: 2, Precision: precision})
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	log.Debug("Decoded audio",
		"source", name,
		"format", kind,
		"rate", format.SampleRate,
		"duration", target.D(buf.Len()),
		"size", humanize.Bytes(uint64(buf.Len()*2*precision)))

	return buf, nil
}

// Decoder fetches and decodes sources.
type Decoder struct {
	fetcher *source.Fetcher
	target  beep.SampleRate
	quality int
}

// New creates a decoder producing buffers at rate target. quality is the
// beep resampling quality (1-64, 4 is a good default).
func New(fetcher *source.Fetcher, target beep.SampleRate, quality int) *Decoder {
	if quality < 1 {
		quality = 4
	}
	return &Decoder{fetcher: fetcher, target: target, quality: quality}
}

// Decode fetches src and decodes it.
func (d *Decoder) Decode(ctx context.Context, src source.Source) (*beep.Buffer, error) {
	data, err := d.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Bytes(data, src.NameHint(), d.target, d.quality)
}
