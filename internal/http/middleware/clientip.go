package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/staysuite/guestgate/internal/fingerprint"
)

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP if there are multiple
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// DeviceFingerprint derives the rate-limit device scope id from connection
// metadata. No raw header values are stored anywhere.
func DeviceFingerprint(r *http.Request) string {
	signature := r.UserAgent() + "|" + r.Header.Get("Accept-Language")
	return fingerprint.Derive(ClientIP(r), signature)
}
