package editor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cardstudio/core"
	"cardstudio/interaction"
	"cardstudio/stores/memory"
)

var _ interaction.Document = (*Editor)(nil)

func newOpenCard(t *testing.T) (*Hub, string) {
	t.Helper()
	store := memory.NewStore()
	id, err := store.Create(context.Background(), core.NewCard())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return NewHub(store), id
}

func TestEditor_SnapshotIsIsolated(t *testing.T) {
	ed := New(memory.NewStore(), core.NewCard())

	snap := ed.Snapshot()
	snap.Message = "mutated"
	snap.Decorations = append(snap.Decorations, core.Decoration{ID: "x"})

	if got := ed.Snapshot(); got.Message != "" || len(got.Decorations) != 0 {
		t.Errorf("snapshot aliases the live card: %+v", got)
	}
}

func TestEditor_UpdateSkipsWhenBuildDeclines(t *testing.T) {
	ed := New(memory.NewStore(), core.NewCard())

	if _, ok := ed.Update(func(*core.Card) (core.Patch, bool) { return core.Patch{}, false }); ok {
		t.Error("Update() reported a write")
	}
	if ed.Version() != 0 {
		t.Errorf("Version() = %d, want 0", ed.Version())
	}
}

func TestEditor_SubscribersSeeWrites(t *testing.T) {
	ed := New(memory.NewStore(), core.NewCard())

	var seen []Change
	cancel := ed.Subscribe(func(c Change) { seen = append(seen, c) })
	ed.Apply(core.Patch{Message: core.String("one")})
	cancel()
	ed.Apply(core.Patch{Message: core.String("two")})

	if len(seen) != 1 || seen[0].Card.Message != "one" {
		t.Fatalf("subscriber saw %+v, want one write", seen)
	}
	if p := seen[0].Patch; p.Message == nil || *p.Message != "one" || p.Theme != nil {
		t.Errorf("patch = %+v, want only the message", p)
	}
	if seen[0].Version != 1 {
		t.Errorf("version = %d, want 1", seen[0].Version)
	}
}

func TestEditor_ConcurrentUpdatesAreSerialised(t *testing.T) {
	card := core.NewCard()
	ed := New(memory.NewStore(), card)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ed.Update(func(current *core.Card) (core.Patch, bool) {
				decos := append(current.Decorations, core.Decoration{ID: core.NewID()})
				return core.Patch{Decorations: &decos}, true
			})
		}()
	}
	wg.Wait()

	if n := len(ed.Snapshot().Decorations); n != 50 {
		t.Errorf("decorations = %d, want 50", n)
	}
	if ed.Version() != 50 {
		t.Errorf("Version() = %d, want 50", ed.Version())
	}
}

func TestHub_SharesEditorPerCard(t *testing.T) {
	hub, id := newOpenCard(t)
	ctx := context.Background()

	a, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	b, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if a != b {
		t.Error("Acquire() returned different editors for the same card")
	}

	hub.Release(ctx, a)
	hub.Release(ctx, b)

	c, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	defer hub.Release(ctx, c)
	if c == a {
		t.Error("editor was not evicted after the last release")
	}
}

func TestHub_ReleaseFlushes(t *testing.T) {
	hub, id := newOpenCard(t)
	ctx := context.Background()

	ed, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	ed.Apply(core.Patch{Message: core.String("persist me")})
	if !ed.Dirty() {
		t.Error("Dirty() = false after a write")
	}
	hub.Release(ctx, ed)

	stored, err := hub.Store().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if stored.Message != "persist me" {
		t.Errorf("stored message = %q", stored.Message)
	}
}

func TestHub_AcquireUnknown(t *testing.T) {
	hub := NewHub(memory.NewStore())
	if _, err := hub.Acquire(context.Background(), core.NewID()); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("Acquire() error = %v, want ErrCardNotFound", err)
	}
}

func TestHub_DeleteDetachesOpenEditor(t *testing.T) {
	hub, id := newOpenCard(t)
	ctx := context.Background()

	ed, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if err := hub.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, ok := ed.Update(func(*core.Card) (core.Patch, bool) {
		return core.Patch{Message: core.String("late")}, true
	}); ok {
		t.Error("Update() on a deleted card should be refused")
	}
	hub.Release(ctx, ed)

	if _, err := hub.Store().Get(ctx, id); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("card resurrected after delete: %v", err)
	}
}

func TestHub_FlushAll(t *testing.T) {
	hub, id := newOpenCard(t)
	ctx := context.Background()

	ed, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	defer hub.Release(ctx, ed)
	ed.Apply(core.Patch{Theme: core.String("birthday")})

	if err := hub.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll() failed: %v", err)
	}
	if ed.Dirty() {
		t.Error("Dirty() = true after FlushAll()")
	}
	stored, _ := hub.Store().Get(ctx, id)
	if stored.Theme != "birthday" {
		t.Errorf("stored theme = %q", stored.Theme)
	}
}

func TestHub_WithReleases(t *testing.T) {
	hub, id := newOpenCard(t)
	ctx := context.Background()

	err := hub.With(ctx, id, func(ed *Editor) error {
		ed.Apply(core.Patch{Message: core.String("via with")})
		return nil
	})
	if err != nil {
		t.Fatalf("With() failed: %v", err)
	}

	hub.mu.Lock()
	open := len(hub.open)
	hub.mu.Unlock()
	if open != 0 {
		t.Errorf("%d editors still open after With()", open)
	}
	stored, _ := hub.Store().Get(ctx, id)
	if stored.Message != "via with" {
		t.Errorf("stored message = %q", stored.Message)
	}

	boom := errors.New("boom")
	if err := hub.With(ctx, id, func(*Editor) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("With() error = %v, want fn error", err)
	}
}

// gatedStore holds every Save until gate is closed.
type gatedStore struct {
	core.CardStore
	entered chan struct{}
	gate    chan struct{}
}

func (s *gatedStore) Save(ctx context.Context, card *core.Card) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.gate
	return s.CardStore.Save(ctx, card)
}

func TestHub_AcquireDuringFlushKeepsWrites(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	id, err := mem.Create(ctx, core.NewCard())
	if err != nil {
		t.Fatal(err)
	}
	store := &gatedStore{CardStore: mem, entered: make(chan struct{}, 1), gate: make(chan struct{})}
	hub := NewHub(store)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.With(ctx, id, func(ed *Editor) error {
			ed.Apply(core.Patch{Recipient: core.String("Alice")})
			return nil
		})
	}()
	<-store.entered

	ed, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if got := ed.Snapshot().Recipient; got != "Alice" {
		t.Errorf("second request sees recipient %q, want Alice", got)
	}
	ed.Apply(core.Patch{Sender: core.String("Bob")})

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Release(ctx, ed)
	}()
	close(store.gate)
	wg.Wait()

	stored, err := mem.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Recipient != "Alice" || stored.Sender != "Bob" {
		t.Errorf("stored recipient=%q sender=%q, want Alice and Bob", stored.Recipient, stored.Sender)
	}

	hub.mu.Lock()
	open := len(hub.open)
	hub.mu.Unlock()
	if open != 0 {
		t.Errorf("%d cards still open after the last release", open)
	}
}
