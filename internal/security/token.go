package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

func HashSHA256(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// TokenVerifier checks bearer tokens against a stored hash so the configured
// token never sits in memory next to request data.
type TokenVerifier struct {
	tokenHash string
}

func NewTokenVerifier(token string) *TokenVerifier {
	if token == "" {
		return nil
	}
	return &TokenVerifier{tokenHash: HashSHA256(token)}
}

func (v *TokenVerifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	provided := HashSHA256(token)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(v.tokenHash)) == 1
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
