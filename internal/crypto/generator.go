package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	numberChars    = "0123456789"
	symbolChars    = "!@#$%^&*()_+-=[]{}|;:,.<>?"

	MinCredentialLength = 12
	MaxCredentialLength = 128
)

var ErrCredentialLength = errors.New("credential length must be between 12 and 128")

// GenerateCredential returns a random password of the given length containing
// at least one uppercase letter, lowercase letter, digit and symbol.
func GenerateCredential(length int) (string, error) {
	if length < MinCredentialLength || length > MaxCredentialLength {
		return "", ErrCredentialLength
	}

	sets := []string{uppercaseChars, lowercaseChars, numberChars, symbolChars}
	pool := uppercaseChars + lowercaseChars + numberChars + symbolChars

	result := make([]byte, length)
	for i := range result {
		charset := pool
		if i < len(sets) {
			charset = sets[i]
		}
		ch, err := randChar(charset)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}

	// Fisher-Yates, so the guaranteed characters do not sit at the front.
	for i := len(result) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}

func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
