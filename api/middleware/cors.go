package middleware

import (
	"net/http"
	"slices"

	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/go-chi/cors"
)

// CORS admits the configured browser origins. A "*" entry opens the API to
// any origin but then stops sending credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type", "X-Request-Id", "X-Requested-With",
			validators.AccessTokenHeader,
		},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if slices.Contains(origins, "*") {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return cors.New(opts).Handler
}
