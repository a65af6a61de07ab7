// internal/common/http/cors.go
package http

import (
	"net/http"
	"strconv"
	"strings"

	"alloy-predictor/internal/common/config"
)

// CORS applies the configured cross-origin policy. With the wildcard
// origin every response gets "Access-Control-Allow-Origin: *"; otherwise
// only listed origins are echoed back.
//
// In PreflightCORS mode OPTIONS requests are answered here with an empty
// 200 (403 for a disallowed origin). In PreflightService mode they are
// passed to the routed handler.
func CORS(cfg config.CORSConfig) Middleware {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	wildcard := cfg.AllowsAnyOrigin()

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	allowOrigin := func(origin string) string {
		if wildcard {
			return "*"
		}
		if origin != "" && allowed[strings.TrimRight(origin, "/")] {
			return origin
		}
		return ""
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := allowOrigin(r.Header.Get("Origin"))

			if !wildcard {
				w.Header().Add("Vary", "Origin")
			}
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if methods != "" {
					w.Header().Set("Access-Control-Allow-Methods", methods)
				}
				if headers != "" {
					w.Header().Set("Access-Control-Allow-Headers", headers)
				}
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}

			if r.Method == http.MethodOptions && cfg.Preflight != config.PreflightService {
				if origin != "" || r.Header.Get("Origin") == "" {
					w.WriteHeader(http.StatusOK)
				} else {
					w.WriteHeader(http.StatusForbidden)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
