package lib

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

func RequestSecretInput(in io.Reader, out io.Writer, prompt string) (string, error) {
	_, err := fmt.Fprintf(out, "%s: ", prompt)
	if err != nil {
		return "", fmt.Errorf("writing prompt: %w", err)
	}

	defer slog.Debug("secret received")

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading secret input: %w", err)
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return "", fmt.Errorf("writing newline after secret input: %w", err)
		}

		return strings.TrimSpace(string(secret)), nil
	}

	slog.Debug("not a terminal, falling back to line input")

	reader := bufio.NewReader(in)
	secret, err := reader.ReadString('\n')
	if err != nil && !(err == io.EOF && secret != "") {
		return "", fmt.Errorf("reading secret input: %w", err)
	}

	return strings.TrimSpace(secret), nil
}

// GetSecretFromEnvOrInput looks the secret up in the given env variables first, then in the
// storage, and finally asks for it on in/out. A prompted value is saved to the storage.
func GetSecretFromEnvOrInput(storage CredentialsStorage, key, label string, envs []string, in io.Reader, out io.Writer, prompt string) (string, error) {
	l := slog.With("context", "secret_lookup", "key", key)

	for _, env := range envs {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			l.Debug("secret found in environment", "env", env)
			return value, nil
		}
	}

	if storage != nil {
		value, err := storage.Get(key)
		if err != nil {
			return "", fmt.Errorf("reading %s from credentials storage: %w", key, err)
		}
		if value != "" {
			l.Debug("secret found in credentials storage")
			return value, nil
		}
	}

	value, err := RequestSecretInput(in, out, prompt)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", fmt.Errorf("%w - empty value provided for %s", BadUserInputError, label)
	}

	if storage != nil {
		if err := storage.Set(key, value, KeyExtras{Label: label}); err != nil {
			return "", fmt.Errorf("saving %s to credentials storage: %w", key, err)
		}
	}

	return value, nil
}
