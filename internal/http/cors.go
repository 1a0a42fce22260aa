package http

import (
	"net/http"

	"github.com/go-chi/cors"
)

// WithCORS envuelve el handler con la politica de origenes permitidos.
// Sin origenes configurados se permite cualquiera.
func WithCORS(next http.Handler, allowedOrigins []string) http.Handler {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: len(allowedOrigins) > 0,
		MaxAge:           300,
	})(next)
}
