// Package editor keeps the live, in-process copy of the cards being edited
// and persists it to the configured core.CardStore.
package editor

import (
	"context"
	"sync"
	"time"

	"cardstudio/core"
)

// Change is one applied write as seen by subscribers.
type Change struct {
	Card    *core.Card
	Patch   core.Patch
	Version uint64
}

// Editor is the authoritative record of one open card. All writes go
// through Update so every change is a single read-build-write step.
type Editor struct {
	store core.CardStore

	// flushMu keeps saves in version order.
	flushMu sync.Mutex

	mu      sync.Mutex
	card    *core.Card
	version uint64
	saved   uint64
	deleted bool
	subs    map[int]func(Change)
	nextSub int
}

// New wraps card. The editor owns card from here on.
func New(store core.CardStore, card *core.Card) *Editor {
	return &Editor{
		store: store,
		card:  card,
		subs:  make(map[int]func(Change)),
	}
}

// ID returns the card id.
func (e *Editor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.card.ID
}

// Snapshot returns a copy of the current card.
func (e *Editor) Snapshot() *core.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.card.Clone()
}

// Version increases by one with every applied write.
func (e *Editor) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Update builds a patch from the current card and applies it. Nothing is
// written when build reports false.
func (e *Editor) Update(build func(current *core.Card) (core.Patch, bool)) (*core.Card, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, false
	}
	p, ok := build(e.card.Clone())
	if !ok {
		return nil, false
	}
	e.card.Apply(p)
	e.card.UpdatedAt = time.Now().UTC()
	e.version++

	out := e.card.Clone()
	for _, fn := range e.subs {
		fn(Change{Card: out, Patch: p, Version: e.version})
	}
	return out, true
}

// Apply merges p into the card.
func (e *Editor) Apply(p core.Patch) *core.Card {
	card, _ := e.Update(func(*core.Card) (core.Patch, bool) { return p, true })
	return card
}

// Subscribe registers fn to receive every write. fn runs under the editor
// lock and must not call back into the editor.
func (e *Editor) Subscribe(fn func(Change)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// Dirty reports whether there are writes not yet flushed.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.deleted && e.version != e.saved
}

// Flush persists the card if it changed since the last flush.
func (e *Editor) Flush(ctx context.Context) error {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	e.mu.Lock()
	if e.deleted || e.version == e.saved {
		e.mu.Unlock()
		return nil
	}
	card, version := e.card.Clone(), e.version
	e.mu.Unlock()

	if err := e.store.Save(ctx, card); err != nil {
		return err
	}

	e.mu.Lock()
	if version > e.saved {
		e.saved = version
	}
	e.mu.Unlock()
	return nil
}

// markDeleted stops all further writes and flushes.
func (e *Editor) markDeleted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleted = true
}
