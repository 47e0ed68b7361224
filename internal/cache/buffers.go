package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/dgnsrekt/soundboard/internal/source"
)

// ErrNoDecoder is returned when a cache was built without a decoder.
var ErrNoDecoder = errors.New("buffer cache has no decoder")

// Buffers maps tags and source paths to decoded buffers.
type Buffers struct {
	decoder Decoder
	group   singleflight.Group

	mu    sync.RWMutex
	items map[string]*beep.Buffer
	stats Stats
}

// NewBuffers creates an empty cache decoding with d.
func NewBuffers(d Decoder) *Buffers {
	return &Buffers{
		decoder: d,
		items:   make(map[string]*beep.Buffer),
	}
}

// Resolve returns the buffer for src.
//
// A cached tag wins without looking at src at all. Otherwise a cached path
// is reused (and recorded under tag too). Otherwise src is decoded once and
// stored under tag and, for path sources, under the path. Concurrent
// resolutions of the same key share one decode; they also share the first
// caller's context.
func (c *Buffers) Resolve(ctx context.Context, src source.Source, tag string) (*beep.Buffer, error) {
	if tag != "" {
		if buf, ok := c.lookup(tag); ok {
			c.hit()
			return buf, nil
		}
	}

	pathKey := ""
	if src.IsPath() {
		pathKey = src.Key()
		if buf, ok := c.lookup(pathKey); ok {
			c.store(buf, tag)
			c.hit()
			return buf, nil
		}
	}

	c.miss()

	if c.decoder == nil {
		return nil, ErrNoDecoder
	}

	if pathKey == "" && tag == "" {
		// nothing to key on: decode without caching
		return c.decode(ctx, src)
	}

	// a tag names one sound whatever its source
	flightKey := pathKey
	if tag != "" {
		flightKey = "tag:" + tag
	}

	v, err, shared := c.group.Do(flightKey, func() (any, error) {
		if tag != "" {
			if buf, ok := c.lookup(tag); ok {
				return buf, nil
			}
		}
		if pathKey != "" {
			if buf, ok := c.lookup(pathKey); ok {
				return buf, nil
			}
		}

		buf, err := c.decode(ctx, src)
		if err != nil {
			return nil, err
		}
		c.store(buf, tag, pathKey)
		return buf, nil
	})
	if err != nil {
		return nil, err
	}

	buf := v.(*beep.Buffer)
	if shared {
		// the leader may have stored under a different tag
		c.store(buf, tag)
	}
	return buf, nil
}

func (c *Buffers) decode(ctx context.Context, src source.Source) (*beep.Buffer, error) {
	start := time.Now()
	buf, err := c.decoder.Decode(ctx, src)

	c.mu.Lock()
	c.stats.Decodes++
	c.stats.LastDecode = time.Now()
	if err != nil {
		c.stats.Failures++
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	log.Debug("Buffer decoded", "source", src.String(), "frames", buf.Len(), "took", time.Since(start))
	return buf, nil
}

// Put stores buf under key, replacing any previous entry.
func (c *Buffers) Put(key string, buf *beep.Buffer) {
	c.store(buf, key)
}

// Get returns the buffer cached under key.
func (c *Buffers) Get(key string) (*beep.Buffer, bool) {
	return c.lookup(key)
}

// Contains reports whether key is cached.
func (c *Buffers) Contains(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Keys returns the cached keys in sorted order.
func (c *Buffers) Keys() []string {
	c.mu.RLock()
	keys := lo.Keys(c.items)
	c.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Stats returns cache statistics.
func (c *Buffers) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Entries = len(c.items)
	distinct := lo.Uniq(lo.Values(c.items))
	stats.Buffers = len(distinct)
	for _, buf := range distinct {
		stats.Frames += int64(buf.Len())
	}
	return stats
}

func (c *Buffers) lookup(key string) (*beep.Buffer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	buf, ok := c.items[key]
	return buf, ok
}

func (c *Buffers) store(buf *beep.Buffer, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if k != "" {
			c.items[k] = buf
		}
	}
}

func (c *Buffers) hit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *Buffers) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}
