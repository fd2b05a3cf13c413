package httpapi

import (
	"net/http"
	"strings"
)

// unknownClient is shared by every request whose origin cannot be determined
const unknownClient = "unknown"

// clientIP picks the rate limiting key from proxy headers: the head of
// X-Forwarded-For, then X-Real-IP, then CF-Connecting-IP.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		head, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(head); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	return unknownClient
}
