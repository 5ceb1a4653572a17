package chi

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// CORSMiddleware allows cross-origin calls from the given origins. "*" allows any origin.
// The matched origin is always echoed rather than "*", so credentialed browser calls
// (cookies, Authorization) are accepted. Any request header may be sent.
func CORSMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowAll := slices.Contains(allowedOrigins, "*")
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return allowAll || slices.Contains(allowedOrigins, origin)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Embedding-Tokens", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
