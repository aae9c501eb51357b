package http

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
)

// voterIdentity is the one-vote-per-poll key: the host part of the remote
// address. It is not authenticated.
func voterIdentity(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return ip
}

// hashVoter shortens the identity for logs so raw addresses are never written.
func hashVoter(identity string) string {
	h := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(h[:])[:12]
}
