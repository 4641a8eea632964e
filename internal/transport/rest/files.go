package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"invoice-dashboard/internal/clients"
)

// FileHandler serves workbooks written by the local export store.
func FileHandler(store *clients.LocalStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		path, err := store.Path(file)
		if err != nil {
			if errors.Is(err, clients.ErrFileNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to access file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", clients.OriginalName(file)))
		http.ServeFile(w, r, path)
	}
}
