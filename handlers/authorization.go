package handlers

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"
)

// Bearer token shared with the internal SPA. Compared constant-time so the
// check leaks nothing about the expected value.
func isAuthorized(r *http.Request) bool {
	expected := os.Getenv("LAUNCH_API_TOKEN")
	if len(expected) == 0 {
		return false
	}
	given := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if len(given) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
