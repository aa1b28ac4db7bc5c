package middleware

import (
	"net/http"
	"strings"

	"license-server/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKey only lets a request through when it carries the admin key, either
// in X-Admin-Key or as "Authorization: Bearer <key>", and the key matches the
// configured bcrypt hash. With no hash configured every request is rejected.
func AdminKey(keyHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	hash := []byte(keyHash)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(hash) == 0 {
				logger.Warn("Admin access attempted but ADMIN_KEY_HASH is not configured",
					zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, r, "Admin access is disabled")
				return
			}

			key := extractAdminKey(r)
			if key == "" {
				utils.ResponseUnauthorized(w, r, "Missing admin key")
				return
			}

			if err := bcrypt.CompareHashAndPassword(hash, []byte(key)); err != nil {
				logger.Warn("Admin check: invalid key",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr))
				utils.ResponseUnauthorized(w, r, "Invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractAdminKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(AdminKeyHeader)); key != "" {
		return key
	}

	// Format: "Bearer <key>"
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
