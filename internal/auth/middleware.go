package auth

import (
	"net/http"
	"strings"

	"github.com/diptiprasadsarangi01/Smart-Todo/internal/middleware"
)

// VerifyToken is middleware that requires a valid bearer access token.
// On success the token subject (user ID) is stored in the request context
// via middleware.SetUserID; on failure the request is rejected with 401.
// The JSON error body matches the api package's error envelope.
func VerifyToken(svc *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, r, "Missing bearer token")
				return
			}

			claims, err := svc.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, r, "Invalid or expired token")
				return
			}
			if claims.Subject == "" {
				unauthorized(w, r, "Token has no subject")
				return
			}

			ctx := middleware.SetUserID(r.Context(), claims.Subject)
			// Make the user ID visible to the logging middleware as well.
			middleware.UpdateResponseContext(w, ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	ctx := middleware.SetErrorCode(r.Context(), "auth_failed")
	middleware.UpdateResponseContext(w, ctx)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"auth_failed","message":"` + message + `"}}`))
}
