package preview

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"cardstudio/core"
	"cardstudio/editor"
	"cardstudio/export"
	"cardstudio/render"

	"github.com/go-chi/chi/v5"
	chirender "github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	chirender.Status(r, status)
	chirender.JSON(w, r, map[string]string{"error": msg})
}

func snapshot(hub *editor.Hub, r *http.Request) (*core.Card, error) {
	var card *core.Card
	err := hub.With(r.Context(), chi.URLParam(r, "id"), func(ed *editor.Editor) error {
		card = ed.Snapshot()
		return nil
	})
	return card, err
}

func writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrCardNotFound) {
		writeError(w, r, http.StatusNotFound, "Card not found")
		return
	}
	logrus.WithFields(logrus.Fields{
		"error":   err,
		"card_id": chi.URLParam(r, "id"),
	}).Error("Failed to load card")
	writeError(w, r, http.StatusInternalServerError, "Failed to load card")
}

// HandlePreview serves the card as HTML. ?selection=<id> marks a selected
// element and ?interactive=1 adds hover handles.
func HandlePreview(hub *editor.Hub, renderer *render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := snapshot(hub, r)
		if err != nil {
			writeLoadError(w, r, err)
			return
		}

		interactive, _ := strconv.ParseBool(r.URL.Query().Get("interactive"))
		html, err := renderer.HTML(card, render.View{
			Selection:   r.URL.Query().Get("selection"),
			Interactive: interactive,
		})
		if err != nil {
			logrus.WithField("card_id", card.ID).WithError(err).Error("Failed to render card")
			writeError(w, r, http.StatusInternalServerError, "Failed to render card")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html)
	}
}

// HandleExport answers with the card as a PNG attachment.
func HandleExport(hub *editor.Hub, exporter *export.Exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := snapshot(hub, r)
		if err != nil {
			writeLoadError(w, r, err)
			return
		}

		file, err := exporter.Export(r.Context(), card)
		if err != nil {
			logrus.WithField("card_id", card.ID).WithError(err).Error("Failed to export card")
			writeError(w, r, http.StatusInternalServerError, "Failed to export card")
			return
		}

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
		w.Write(file.Data)
	}
}
