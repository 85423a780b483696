package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/heartmarshall/contentflow-backend/internal/config"
)

// CORS answers preflight requests and decorates responses for allowed origins.
// The request id header is exposed so browser clients can quote it in reports.
func CORS(cfg config.CORSConfig) Middleware {
	origins, wildcard := parseOrigins(cfg.AllowedOrigins)
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if origin != "" && (wildcard || origins[origin]) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
				h.Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseOrigins(raw string) (map[string]bool, bool) {
	set := make(map[string]bool)
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			return nil, true
		default:
			set[o] = true
		}
	}
	return set, false
}
