package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashRFID returns the hex sha256 digest stored in place of the raw tag.
// RFID tags are lookup keys, not secrets, so a deterministic digest is used.
func HashRFID(tag string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(tag)))
	return hex.EncodeToString(sum[:])
}

// GeneratePersonalAccessToken mints a random url-safe token string.
func GeneratePersonalAccessToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
