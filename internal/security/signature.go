package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PayloadSigner signs and verifies webhook payloads with HMAC-SHA256.
// An empty secret disables verification.
type PayloadSigner struct {
	secret []byte
}

func NewPayloadSigner(secret string) *PayloadSigner {
	return &PayloadSigner{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured
func (s *PayloadSigner) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Sign returns the hex signature of payload
func (s *PayloadSigner) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches payload. Accepts an optional "sha256=" prefix.
func (s *PayloadSigner) Verify(payload []byte, signature string) bool {
	if !s.Enabled() {
		return true
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(s.Sign(payload)), []byte(strings.ToLower(signature)))
}
