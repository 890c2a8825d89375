package cards

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"unicode/utf8"

	"cardstudio/catalog"
	"cardstudio/core"
	"cardstudio/editor"
	"cardstudio/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes      = 10 << 20
	maxStickerContent = 64
	stickerTilt       = 30
)

var errBadSticker = errors.New("sticker content must be 1 to 64 characters")

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// writeCardError maps store and editor errors to responses.
func writeCardError(w http.ResponseWriter, r *http.Request, id string, err error) {
	if errors.Is(err, core.ErrCardNotFound) {
		writeError(w, r, http.StatusNotFound, "Card not found")
		return
	}
	logrus.WithFields(logrus.Fields{
		"error":   err,
		"card_id": id,
	}).Error("Card request failed")
	writeError(w, r, http.StatusInternalServerError, "Card request failed")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// withThemeDefaults resets caption and background when the theme changes,
// unless the patch sets them itself.
func withThemeDefaults(cat *catalog.Catalog, current *core.Card, p core.Patch) core.Patch {
	if p.Theme == nil || *p.Theme == current.Theme {
		return p
	}
	if p.EnglishCaption == nil {
		if t, ok := cat.Theme(*p.Theme); ok {
			p.EnglishCaption = core.String(t.Caption)
		}
	}
	if p.BackgroundColor == nil {
		p.BackgroundColor = core.String(core.DefaultBackgroundColor)
	}
	return p
}

func HandleCreate(store core.CardStore, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p core.Patch
		if r.ContentLength != 0 {
			if !decode(w, r, &p) {
				return
			}
		}
		if err := cat.ValidatePatch(p); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		card := cat.NewCard()
		card.Apply(withThemeDefaults(cat, card, p))
		if claims, ok := middleware.Claims(r.Context()); ok {
			card.OwnerID = claims.Subject
		}

		id, err := store.Create(r.Context(), card)
		if err != nil {
			writeCardError(w, r, "", err)
			return
		}

		logrus.WithFields(logrus.Fields{
			"card_id":  id,
			"owner_id": card.OwnerID,
		}).Info("Card created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, card)
	}
}

func HandleGet(hub *editor.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := hub.With(r.Context(), id, func(ed *editor.Editor) error {
			render.JSON(w, r, ed.Snapshot())
			return nil
		})
		if err != nil {
			writeCardError(w, r, id, err)
		}
	}
}

func HandlePatch(hub *editor.Hub, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var p core.Patch
		if !decode(w, r, &p) {
			return
		}
		if err := cat.ValidatePatch(p); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		err := hub.With(r.Context(), id, func(ed *editor.Editor) error {
			card, ok := ed.Update(func(current *core.Card) (core.Patch, bool) {
				return withThemeDefaults(cat, current, p), true
			})
			if !ok {
				return core.ErrCardNotFound
			}
			render.JSON(w, r, card)
			return nil
		})
		if err != nil {
			writeCardError(w, r, id, err)
		}
	}
}

func HandleDelete(hub *editor.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		card, err := hub.Store().Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrCardNotFound) {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeCardError(w, r, id, err)
			return
		}
		if card.OwnerID != "" {
			claims, ok := middleware.Claims(r.Context())
			if !ok || claims.Subject != card.OwnerID {
				writeError(w, r, http.StatusForbidden, "Only the owner can delete this card")
				return
			}
		}

		if err := hub.Delete(r.Context(), id); err != nil {
			writeCardError(w, r, id, err)
			return
		}
		logrus.WithField("card_id", id).Info("Card deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleList(store core.CardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.Claims(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "User claims not found")
			return
		}

		cards, err := store.List(r.Context(), claims.Subject)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"owner_id": claims.Subject,
			}).Error("Failed to list cards")
			writeError(w, r, http.StatusInternalServerError, "Failed to list cards")
			return
		}
		if cards == nil {
			cards = []*core.CardSummary{}
		}
		render.JSON(w, r, cards)
	}
}

// NewDecoration places a sticker at the neutral position with a random tilt.
func NewDecoration(content string, r *rand.Rand) (core.Decoration, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxStickerContent {
		return core.Decoration{}, errBadSticker
	}
	return core.Decoration{
		ID:       core.NewID(),
		Content:  content,
		Scale:    1,
		Rotation: (r.Float64() - 0.5) * stickerTilt,
	}, nil
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func HandleAddSticker(hub *editor.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var body struct {
			Content string `json:"content"`
		}
		if !decode(w, r, &body) {
			return
		}
		deco, err := NewDecoration(body.Content, newRand())
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		err = hub.With(r.Context(), id, func(ed *editor.Editor) error {
			card, ok := ed.Update(func(current *core.Card) (core.Patch, bool) {
				decos := append(current.Decorations, deco)
				return core.Patch{Decorations: &decos}, true
			})
			if !ok {
				return core.ErrCardNotFound
			}
			render.Status(r, http.StatusCreated)
			render.JSON(w, r, card)
			return nil
		})
		if err != nil {
			writeCardError(w, r, id, err)
		}
	}
}

// HandleRemoveDecoration deletes a decoration. Removing one that is already
// gone is not an error.
func HandleRemoveDecoration(hub *editor.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		decoID := chi.URLParam(r, "decorationId")

		err := hub.With(r.Context(), id, func(ed *editor.Editor) error {
			card, ok := ed.Update(func(current *core.Card) (core.Patch, bool) {
				i := current.DecorationIndex(decoID)
				if i < 0 {
					return core.Patch{}, false
				}
				decos := append(current.Decorations[:i:i], current.Decorations[i+1:]...)
				return core.Patch{Decorations: &decos}, true
			})
			if !ok {
				card = ed.Snapshot()
			}
			render.JSON(w, r, card)
			return nil
		})
		if err != nil {
			writeCardError(w, r, id, err)
		}
	}
}

func HandleRandomTemplate(hub *editor.Hub, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p := cat.RandomTemplate(newRand())

		err := hub.With(r.Context(), id, func(ed *editor.Editor) error {
			card, ok := ed.Update(func(*core.Card) (core.Patch, bool) { return p, true })
			if !ok {
				return core.ErrCardNotFound
			}
			render.JSON(w, r, card)
			return nil
		})
		if err != nil {
			writeCardError(w, r, id, err)
		}
	}
}
