package cors

import (
	"net/http"

	rscors "github.com/rs/cors"
)

// Config holds the cross-origin policy.
type Config struct {
	AllowedOrigin    string
	AllowCredentials bool
	// MaxAge is how long, in seconds, browsers may cache a preflight answer.
	MaxAge int
}

// DefaultConfig allows the local web client with credentials.
func DefaultConfig() Config {
	return Config{
		AllowedOrigin:    "http://localhost:3000",
		AllowCredentials: true,
		MaxAge:           600,
	}
}

var allowedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// Middleware applies the policy to every response and answers preflight
// requests directly with 204. Any requested header is allowed for the
// configured origin; other origins get no CORS headers at all.
func Middleware(config Config) func(http.Handler) http.Handler {
	c := rscors.New(rscors.Options{
		AllowedOrigins:       []string{config.AllowedOrigin},
		AllowedMethods:       allowedMethods,
		AllowedHeaders:       []string{"*"},
		AllowCredentials:     config.AllowCredentials,
		MaxAge:               config.MaxAge,
		OptionsSuccessStatus: http.StatusNoContent,
	})
	return c.Handler
}
