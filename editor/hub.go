package editor

import (
	"context"
	"sync"

	"cardstudio/core"

	"github.com/sirupsen/logrus"
)

type entry struct {
	editor *Editor
	refs   int
}

// Hub hands out one Editor per open card id so that HTTP requests and live
// sessions on the same card share the same record.
type Hub struct {
	store core.CardStore

	mu   sync.Mutex
	open map[string]*entry
}

func NewHub(store core.CardStore) *Hub {
	return &Hub{store: store, open: make(map[string]*entry)}
}

// Store returns the backing store.
func (h *Hub) Store() core.CardStore {
	return h.store
}

// Acquire returns the editor for id, loading it from the store if no one
// holds it yet. Every Acquire must be paired with a Release.
func (h *Hub) Acquire(ctx context.Context, id string) (*Editor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.open[id]; ok {
		e.refs++
		return e.editor, nil
	}

	card, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e := &entry{editor: New(h.store, card), refs: 1}
	h.open[id] = e

	logrus.WithField("card_id", id).Debug("Card opened for editing")
	return e.editor, nil
}

// Release drops one reference and flushes pending writes. The last release
// also evicts the card from memory once every write is saved; an Acquire
// during the flush gets the same editor back. A card with unsaved writes
// stays open so a later release retries it.
func (h *Hub) Release(ctx context.Context, ed *Editor) {
	id := ed.ID()

	h.mu.Lock()
	e, ok := h.open[id]
	if !ok || e.editor != ed {
		h.mu.Unlock()
		return
	}
	e.refs--
	h.mu.Unlock()

	err := ed.Flush(ctx)

	h.mu.Lock()
	last := h.open[id] == e && e.refs <= 0
	if last && !ed.Dirty() {
		delete(h.open, id)
	}
	h.mu.Unlock()

	if err != nil {
		logrus.WithFields(logrus.Fields{
			"card_id": id,
			"last":    last,
		}).WithError(err).Error("Failed to flush card")
	}
}

// With runs fn on the editor for id and releases it afterwards.
func (h *Hub) With(ctx context.Context, id string, fn func(ed *Editor) error) error {
	ed, err := h.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer h.Release(ctx, ed)
	return fn(ed)
}

// Delete removes the card from the store and detaches any open editor.
func (h *Hub) Delete(ctx context.Context, id string) error {
	h.mu.Lock()
	if e, ok := h.open[id]; ok {
		e.editor.markDeleted()
		delete(h.open, id)
	}
	h.mu.Unlock()

	return h.store.Delete(ctx, id)
}

// FlushAll persists every open card. Used on shutdown.
func (h *Hub) FlushAll(ctx context.Context) error {
	h.mu.Lock()
	editors := make([]*Editor, 0, len(h.open))
	for _, e := range h.open {
		editors = append(editors, e.editor)
	}
	h.mu.Unlock()

	var firstErr error
	for _, ed := range editors {
		if err := ed.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
