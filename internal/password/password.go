// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor. Fixed so stored hashes verify the same
// way across deployments.
const Cost = 12

// Hash returns the salted bcrypt hash of a plaintext password.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches the stored bcrypt hash.
// It never returns an error on mismatch.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
