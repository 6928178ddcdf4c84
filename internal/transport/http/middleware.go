package http

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/strogmv/apiblocks/internal/pkg/errors"
)

// APIKeyMiddleware accepts the key as X-API-Key, a Bearer token or the
// api_key query parameter (browsers cannot set headers on websockets).
func APIKeyMiddleware(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get("X-API-Key")
			if key == "" {
				token := r.Header.Get("Authorization")
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					key = strings.TrimSpace(token[7:])
				}
			}
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key == "" {
				errors.WriteError(w, r, errors.New(http.StatusUnauthorized, "Unauthorized", "API key required"))
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
				errors.WriteError(w, r, errors.New(http.StatusUnauthorized, "Unauthorized", "Invalid API key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func MaxBodySizeMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				errors.WriteError(w, r, errors.New(http.StatusRequestEntityTooLarge, "Payload Too Large", fmt.Sprintf("Request body too large (max %d bytes)", limit)))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
