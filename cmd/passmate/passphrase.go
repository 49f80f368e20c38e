// Passphrase prompts. The core never persists a passphrase; it is read per
// session (or per peer file during sync) and handed to the container codec.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// readPassphrase prompts on stderr and reads a passphrase without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "read passphrase")
	}
	return string(pass), nil
}

// readNewPassphrase prompts twice until both entries match.
func readNewPassphrase(filename string) (string, error) {
	for {
		first, err := readPassphrase(fmt.Sprintf("Passphrase to create %s: ", filename))
		if err != nil {
			return "", err
		}
		second, err := readPassphrase(fmt.Sprintf("Repeat passphrase to create %s: ", filename))
		if err != nil {
			return "", err
		}
		if first == second {
			return first, nil
		}
		fmt.Fprintln(os.Stderr, "Passphrases do not match. Please try again.")
		fmt.Fprintln(os.Stderr)
	}
}
