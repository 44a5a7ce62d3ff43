package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var errEmptyPassphrase = errors.New("passphrase must not be empty")

// PromptPassphrase asks for a secret on the terminal attached to stdin with
// echo turned off.
func PromptPassphrase(label string, stdin *os.File, stdout io.Writer) (string, error) {
	if stdin == nil {
		return "", errors.New("stdin unavailable")
	}

	fmt.Fprint(stdout, label)
	secret, err := readWithoutEcho(stdin)
	fmt.Fprintln(stdout)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if secret == "" {
		return "", errEmptyPassphrase
	}
	return secret, nil
}

func readLine(reader io.Reader) (string, error) {
	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
