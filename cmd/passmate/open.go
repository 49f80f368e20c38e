// Session helpers shared by the subcommands. Every command opens its own
// session, runs, and closes it; Close persists pending changes and always
// releases the lock.
package main

import (
	"fmt"

	"github.com/mesh-intelligence/passmate/internal/session"
)

// openSession prompts for the passphrase and opens the primary database.
func openSession() (*session.Session, error) {
	pass, err := readPassphrase(fmt.Sprintf("Passphrase to open %s: ", cfg.PrimaryDB))
	if err != nil {
		return nil, err
	}
	return session.Starter{
		Config:     cfg,
		Passphrase: pass,
	}.Start()
}

// withSession runs fn inside an open session and propagates the first
// error, preferring fn's over Close's.
func withSession(fn func(*session.Session) error) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	runErr := fn(sess)
	if closeErr := sess.Close(); runErr == nil {
		runErr = closeErr
	}
	return runErr
}
