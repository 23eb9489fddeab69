// Package secrets generates random credentials for operational tooling.
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// passwordChars is the character set for generated passwords.
const passwordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// jwtSecretBytes is the entropy of a generated signing secret.
const jwtSecretBytes = 32

// GenerateJWTSecret returns a random hex-encoded HS256 signing secret.
func GenerateJWTSecret() (string, error) {
	buf := make([]byte, jwtSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GeneratePassword returns a random alphanumeric password of the given
// length.
func GeneratePassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = passwordChars[int(b)%len(passwordChars)]
	}
	return string(out), nil
}
