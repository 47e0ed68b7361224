// Package cache keeps decoded audio buffers keyed by tag or source path so
// each distinct sound is decoded at most once per session. Entries are never
// evicted.
package cache
