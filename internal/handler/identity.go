package handler

import (
	"context"
	"net/http"
	"strings"
)

// Identity headers injected by the upstream auth layer. The service trusts
// them; it never validates credentials itself.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"

	roleAdmin = "admin"
)

type userIDKey struct{}
type userRoleKey struct{}

// UserID returns the resolved caller id from the context, empty if absent.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// IsAdmin reports whether the resolved caller carries the admin role.
func IsAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(userRoleKey{}).(string)
	return role == roleAdmin
}

// RequireUser rejects requests without a resolved user identity and stores
// the identity in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "missing resolved identity")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, uid)
		ctx = context.WithValue(ctx, userRoleKey{}, strings.TrimSpace(r.Header.Get(HeaderUserRole)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects callers without the admin role. Must run after
// RequireUser.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
