package rawdb

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFileAtomic writes data to a temporary file in the target's directory
// and renames it over path, so a crash mid-write never corrupts a previous
// valid file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	name := tmp.Name()

	fail := func(err error, msg string) error {
		tmp.Close()
		os.Remove(name)
		return errors.Wrap(err, msg)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(err, "chmod temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}
