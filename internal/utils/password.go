package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no stored hash exists, so a lookup miss
// costs as much as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}

// BurnPasswordCheck performs a bcrypt comparison whose result is discarded.
func BurnPasswordCheck(plain string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}

// IsHashTooLong reports whether err is bcrypt's complaint about input
// exceeding 72 bytes.
func IsHashTooLong(err error) bool {
	return errors.Is(err, bcrypt.ErrPasswordTooLong)
}
