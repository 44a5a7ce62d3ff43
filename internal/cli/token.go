package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/terraincognita07/flux/internal/api"
	"github.com/terraincognita07/flux/internal/security"
)

const (
	secretKeyLength   = 48
	secretKeyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// RunTokenCommand prints a bearer token for profile.
func RunTokenCommand(secretKey string, profile string, ttl time.Duration, stdout io.Writer) error {
	token, err := api.IssueToken([]byte(secretKey), profile, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Fprintln(stdout, token)
	return nil
}

// RunSecretCommand prints a freshly generated SECRET_KEY value.
func RunSecretCommand(stdout io.Writer) error {
	secret, err := security.RandomString(secretKeyLength, secretKeyAlphabet)
	if err != nil {
		return fmt.Errorf("generate secret key: %w", err)
	}
	fmt.Fprintf(stdout, "SECRET_KEY=%s\n", secret)
	return nil
}
