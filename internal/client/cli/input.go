package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

var errEmptySecret = errors.New("empty secret")

// GetSecret prints a prompt to w and reads the shared secret from the
// terminal without echo. A newline is printed after the read to keep the
// output tidy.
func GetSecret(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Enter shared secret: "); err != nil {
		return "", err
	}
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	secret := strings.TrimSpace(string(b))
	if secret == "" {
		return "", errEmptySecret
	}
	return secret, nil
}
