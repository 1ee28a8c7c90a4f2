package webchat

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sessionPrefix = "web:"

// ResolveSessionID picks the caller's session: X-Session-Id header, X-Client-Id
// header, the body's session_id, then the client address. minted is true when
// none of those were usable and a fresh id was generated.
func ResolveSessionID(r *http.Request, bodySessionID string) (id string, minted bool) {
	for _, candidate := range []string{
		r.Header.Get("X-Session-Id"),
		r.Header.Get("X-Client-Id"),
		bodySessionID,
		clientIP(r),
	} {
		if c := sanitize(candidate); c != "" {
			return c, false
		}
	}
	return generateSessionID(), true
}

// SessionKey namespaces a web session id for the conversation store.
func SessionKey(sessionID string) string {
	return sessionPrefix + sessionID
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func sanitize(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 128 {
		id = id[:128]
	}
	return id
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
