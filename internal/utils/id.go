package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// PINAlphabet leaves out characters that are easy to confuse when read off a screen (0/O, 1/I/L).
const PINAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// PINLength is the number of characters in a room PIN.
const PINLength = 6

// NewPIN returns a random room PIN drawn from PINAlphabet.
func NewPIN() (string, error) {
	buf := make([]byte, PINLength)
	size := big.NewInt(int64(len(PINAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = PINAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ValidPIN reports whether s could have been produced by NewPIN.
func ValidPIN(s string) bool {
	if len(s) != PINLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		found := false
		for j := 0; j < len(PINAlphabet); j++ {
			if s[i] == PINAlphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
