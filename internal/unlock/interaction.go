package unlock

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// InteractionSource delivers user interaction events such as a key or mouse
// press.
type InteractionSource interface {
	Interactions() <-chan struct{}
}

// Trigger is an InteractionSource fed by calling Fire.
type Trigger struct {
	once sync.Once
	ch   chan struct{}
}

// NewTrigger creates a trigger.
func NewTrigger() *Trigger {
	return &Trigger{ch: make(chan struct{})}
}

// Fire signals an interaction. Only the first call has an effect.
func (t *Trigger) Fire() {
	t.once.Do(func() { close(t.ch) })
}

// Interactions implements InteractionSource.
func (t *Trigger) Interactions() <-chan struct{} {
	return t.ch
}

// OnFirstInteraction calls resume once, on the first event from src. It
// returns a channel closed after resume has run or ctx is done.
func OnFirstInteraction(ctx context.Context, src InteractionSource, resume func() error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
		case <-src.Interactions():
			if err := resume(); err != nil {
				log.Warn("Resume on first interaction failed", "error", err)
			}
		}
	}()
	return done
}
