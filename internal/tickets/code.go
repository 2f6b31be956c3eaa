package tickets

import (
	"crypto/rand"
	"fmt"
)

const (
	checkinAlphabet   = "1234567890ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	checkinCodeLength = 12
)

// GenerateCheckinCode returns a 12-character uppercase alphanumeric code.
// Codes are read aloud and typed at the door, so the alphabet avoids
// lowercase and punctuation.
func GenerateCheckinCode() (string, error) {
	buf := make([]byte, checkinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate check-in code: %w", err)
	}
	for i, b := range buf {
		buf[i] = checkinAlphabet[int(b)%len(checkinAlphabet)]
	}
	return string(buf), nil
}
