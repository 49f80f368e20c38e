//go:build unix

package session

import (
	"os"
	"syscall"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/passmate/pkg/types"
)

// acquireLock takes an exclusive advisory flock on the sidecar lock file.
// The lock is cooperative: it only keeps out other passmate processes.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "open lock file")
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, types.ErrLockHeld
		}
		return nil, errors.Wrap(err, "lock database")
	}
	return f, nil
}

func releaseLock(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return errors.Wrap(err, "unlock database")
	}
	return f.Close()
}
