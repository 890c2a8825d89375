// Package storetest holds the behaviour every core.CardStore must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardstudio/core"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Run exercises store against the CardStore contract. newStore must return
// an empty store.
func Run(t *testing.T, newStore func(t *testing.T) core.CardStore) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("GetUnknown", func(t *testing.T) { testGetUnknown(t, newStore(t)) })
	t.Run("SaveReplaces", func(t *testing.T) { testSaveReplaces(t, newStore(t)) })
	t.Run("SaveUnknown", func(t *testing.T) { testSaveUnknown(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("ListByOwner", func(t *testing.T) { testListByOwner(t, newStore(t)) })
}

func sample(owner string) *core.Card {
	card := core.NewCard()
	card.OwnerID = owner
	card.Name = "for grandma"
	card.Message = "Happy birthday!"
	card.Decorations = []core.Decoration{
		{ID: core.NewID(), Content: "🎈", X: 12, Y: -4, Scale: 1.25, Rotation: -8},
	}
	return card
}

var ignoreTimes = cmpopts.IgnoreFields(core.Card{}, "CreatedAt", "UpdatedAt")

func testCreateAndGet(t *testing.T, store core.CardStore) {
	ctx := context.Background()
	card := sample("github:1")

	id, err := store.Create(ctx, card)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if id == "" || card.ID != id {
		t.Fatalf("Create() id = %q, card.ID = %q", id, card.ID)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if diff := cmp.Diff(card, got, ignoreTimes); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
	if got.OwnerID != "github:1" {
		t.Errorf("OwnerID = %q, want github:1", got.OwnerID)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func testGetUnknown(t *testing.T, store core.CardStore) {
	for _, id := range []string{core.NewID(), "../../etc/passwd", ""} {
		_, err := store.Get(context.Background(), id)
		if !errors.Is(err, core.ErrCardNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrCardNotFound", id, err)
		}
	}
}

func testSaveReplaces(t *testing.T, store core.CardStore) {
	ctx := context.Background()
	card := sample("")
	id, err := store.Create(ctx, card)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	card.Apply(core.Patch{Message: core.String("Get well soon"), ImageWidth: core.Float(42)})
	card.UpdatedAt = time.Now().UTC().Add(time.Minute)
	if err := store.Save(ctx, card); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Message != "Get well soon" || got.ImageWidth != 42 {
		t.Errorf("Save() not persisted: message=%q width=%v", got.Message, got.ImageWidth)
	}
	if len(got.Decorations) != 1 {
		t.Errorf("decorations lost: %+v", got.Decorations)
	}
}

func testSaveUnknown(t *testing.T, store core.CardStore) {
	card := sample("")
	card.ID = core.NewID()
	if err := store.Save(context.Background(), card); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("Save() of an unknown card error = %v, want ErrCardNotFound", err)
	}
}

func testDelete(t *testing.T, store core.CardStore) {
	ctx := context.Background()
	id, err := store.Create(ctx, sample(""))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("Get() after Delete() error = %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Errorf("second Delete() failed: %v", err)
	}
}

func testListByOwner(t *testing.T, store core.CardStore) {
	ctx := context.Background()

	mine := map[string]bool{}
	for i := 0; i < 3; i++ {
		id, err := store.Create(ctx, sample("github:7"))
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		mine[id] = true
	}
	if _, err := store.Create(ctx, sample("github:8")); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	list, err := store.List(ctx, "github:7")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != len(mine) {
		t.Fatalf("List() returned %d cards, want %d", len(list), len(mine))
	}
	for _, s := range list {
		if !mine[s.ID] {
			t.Errorf("List() returned foreign card %s", s.ID)
		}
	}

	empty, err := store.List(ctx, "github:nobody")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List() for unknown owner = %#v, want empty slice", empty)
	}
}
