//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger does nothing in default builds; compile with -tags=swagger
// to serve the API docs.
func MountSwagger(r chi.Router) {}
