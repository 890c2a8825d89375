package generate

import (
	"errors"
	"net/http"

	"cardstudio/core"
	"cardstudio/editor"
	"cardstudio/generation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// Suggest is the pseudo-kind that runs caption, stickers and background
// together.
const Suggest = "suggest"

type kindResult struct {
	Kind     generation.Kind    `json:"kind"`
	Applied  bool               `json:"applied"`
	Stale    bool               `json:"stale,omitempty"`
	Fallback bool               `json:"fallback,omitempty"`
	Notice   *generation.Notice `json:"notice,omitempty"`
}

type response struct {
	Card    *core.Card   `json:"card"`
	Results []kindResult `json:"results"`
}

func toKindResult(r generation.Result) kindResult {
	return kindResult{
		Kind:     r.Kind,
		Applied:  r.Applied,
		Stale:    r.Stale,
		Fallback: r.Fallback,
		Notice:   r.Notice,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// HandleGenerate runs one generation kind, or "suggest", against a card and
// answers with the card as it stands afterwards.
func HandleGenerate(hub *editor.Hub, d *generation.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		kindParam := chi.URLParam(r, "kind")

		var kind generation.Kind
		if kindParam != Suggest {
			k, err := generation.ParseKind(kindParam)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			kind = k
		}

		err := hub.With(r.Context(), id, func(ed *editor.Editor) error {
			var results []generation.Result
			if kindParam == Suggest {
				rs, err := d.Suggest(r.Context(), ed)
				if err != nil {
					return err
				}
				results = rs
			} else {
				res, err := d.Do(r.Context(), ed, kind)
				if err != nil {
					return err
				}
				results = []generation.Result{res}
			}

			resp := response{Card: ed.Snapshot()}
			for _, res := range results {
				resp.Results = append(resp.Results, toKindResult(res))
			}
			render.JSON(w, r, resp)
			return nil
		})
		if err != nil {
			if errors.Is(err, core.ErrCardNotFound) {
				writeError(w, r, http.StatusNotFound, "Card not found")
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"card_id": id,
				"kind":    kindParam,
			}).Error("Generation request failed")
			writeError(w, r, http.StatusInternalServerError, "Generation request failed")
		}
	}
}

// HandleBusy reports which generation kinds are in flight for a card.
func HandleBusy(d *generation.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, d.Busy(chi.URLParam(r, "id")))
	}
}
