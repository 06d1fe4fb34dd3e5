package services

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// shortID returns an n-character URL-safe random identifier.
func shortID(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	enc := base64.RawURLEncoding.EncodeToString(buf)
	if len(enc) < n {
		return enc
	}
	return enc[:n]
}

// compactUUID is a dash-less UUID truncated to n characters, used for
// externally visible ids.
func compactUUID(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > 0 && n < len(s) {
		return s[:n]
	}
	return s
}

const inviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// newInviteCode produces the 6-character code partners exchange at onboarding.
func newInviteCode() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(out)
}
