package security

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultKeyIterations = 480000
	saltSize             = 16
)

var (
	ErrSealedPayloadCorrupt = errors.New("sealed payload is corrupt")
	errEmptyPassphrase      = errors.New("passphrase must not be empty")
)

// Sealer encrypts stored exports with a key derived from a passphrase and a
// per-payload salt. Sealed output is nonce || ciphertext.
type Sealer struct {
	passphrase []byte
	iterations int
}

func NewSealer(passphrase string, iterations int) (*Sealer, error) {
	if passphrase == "" {
		return nil, errEmptyPassphrase
	}
	if iterations <= 0 {
		iterations = DefaultKeyIterations
	}
	return &Sealer{passphrase: []byte(passphrase), iterations: iterations}, nil
}

func (sealer *Sealer) Seal(plaintext []byte) ([]byte, []byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(sealer.deriveKey(salt))
	if err != nil {
		return nil, nil, fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}
	return salt, aead.Seal(nonce, nonce, plaintext, salt), nil
}

func (sealer *Sealer) Open(salt []byte, sealed []byte) ([]byte, error) {
	if len(salt) != saltSize {
		return nil, ErrSealedPayloadCorrupt
	}

	aead, err := chacha20poly1305.NewX(sealer.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrSealedPayloadCorrupt
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, salt)
	if err != nil {
		return nil, ErrSealedPayloadCorrupt
	}
	return plaintext, nil
}

func (sealer *Sealer) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(sealer.passphrase, salt, sealer.iterations, chacha20poly1305.KeySize, sha256.New)
}
