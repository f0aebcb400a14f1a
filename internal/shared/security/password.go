package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPassword derives the stored password hash from the plaintext and the
// account's random salt.
func HashPassword(plaintext, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + plaintext))
	return hex.EncodeToString(sum[:])
}
