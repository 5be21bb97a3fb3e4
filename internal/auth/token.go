package auth

import (
	"net/http"
	"strings"
)

// ExtractAccessToken pulls the bearer token from the access_token cookie,
// falling back to the Authorization header. The cookie wins when both are
// present.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
