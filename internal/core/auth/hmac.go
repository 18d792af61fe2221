package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"

	"github.com/rotisserie/eris"
)

// digestKeyBytes is the size of the per-process HMAC key used to digest API keys.
const digestKeyBytes = 32

// NewDigestKey returns a random key for ComputeHMAC.
func NewDigestKey() ([]byte, error) {
	key := make([]byte, digestKeyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, eris.Wrap(err, "generate digest key")
	}
	return key, nil
}

// ComputeHMAC computes the HMAC-SHA256 digest of apiKey.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// VerifyHMAC compares two digests in constant time.
func VerifyHMAC(expected, computed []byte) bool {
	return hmac.Equal(expected, computed)
}
