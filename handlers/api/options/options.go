package options

import (
	"net/http"

	"cardstudio/catalog"

	"github.com/go-chi/render"
)

// HandleOptions serves every option catalogue the editor offers.
func HandleOptions(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		render.JSON(w, r, cat)
	}
}
