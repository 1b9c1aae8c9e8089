package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// MinCost is the lowest bcrypt work factor accepted for new digests
const MinCost = 12

// HashPassword returns a salted bcrypt digest of plaintext
func HashPassword(plaintext string, cost int) (string, error) {
	if cost < MinCost {
		cost = MinCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword compares in constant time. Malformed digests simply don't match.
func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
