package security

import (
	"crypto/rand"
	"errors"
	"fmt"
)

var (
	errNegativeLength  = errors.New("length must be non-negative")
	errInvalidAlphabet = errors.New("alphabet must hold between 1 and 256 bytes")
)

// RandomString draws length characters uniformly from alphabet using
// crypto/rand. Bytes that would bias the choice are rejected and redrawn.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if len(alphabet) == 0 || len(alphabet) > 256 {
		return "", errInvalidAlphabet
	}
	if length == 0 {
		return "", nil
	}

	size := len(alphabet)
	ceiling := 256 - 256%size
	result := make([]byte, 0, length)
	buffer := make([]byte, length)
	for len(result) < length {
		if _, err := rand.Read(buffer); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, value := range buffer {
			if int(value) >= ceiling {
				continue
			}
			result = append(result, alphabet[int(value)%size])
			if len(result) == length {
				break
			}
		}
	}
	return string(result), nil
}
