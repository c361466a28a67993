package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	Enabled    bool
	APIKey     string
	HeaderName string

	// QueryParam is accepted as a fallback for clients that cannot set
	// headers, such as browser websocket connections.
	QueryParam  string
	PublicPaths []string
}

// DefaultAuthConfig returns the default settings. Auth stays disabled until
// an API key is configured.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		HeaderName:  "X-Api-Key",
		QueryParam:  "apikey",
		PublicPaths: []string{"/health", "/metrics"},
	}
}

// Auth rejects requests without a valid API key.
func Auth(config AuthConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled || slices.Contains(config.PublicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := extractAPIKey(r, config)
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(config.APIKey)) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_provided", apiKey != "").
					Msg("Authentication failed")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"data":null,"error":{"code":"UNAUTHORIZED","message":"Invalid or missing API key","details":"Provide a valid API key in the ` + config.HeaderName + ` header"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request, config AuthConfig) string {
	if key := r.Header.Get(config.HeaderName); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if config.QueryParam != "" {
		return r.URL.Query().Get(config.QueryParam)
	}
	return ""
}
