// Package site serves the embedded upload page.
package site

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register attaches the upload page and its assets to r.
//
//	GET /         -> index.html
//	GET /static/* -> embedded assets
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	files := http.FileServer(FS())
	r.Get("/", files.ServeHTTP)
	r.Get("/static/*", http.StripPrefix("/static", files).ServeHTTP)
}
