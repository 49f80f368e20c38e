package types

import (
	"errors"
	"fmt"
	"strings"
)

// Session and store errors.
var (
	// ErrDBDoesNotExist is returned when opening a primary database whose
	// file does not exist and initialization was not requested.
	ErrDBDoesNotExist = errors.New("database does not exist")

	// ErrDBAlreadyExists is returned when initialization is requested but
	// the primary database file is already present.
	ErrDBAlreadyExists = errors.New("database already exists")

	// ErrLockHeld is returned when another process holds the primary
	// database lock.
	ErrLockHeld = errors.New("database is opened by another process")

	// ErrWrongPassphrase is returned when the passphrase check of a
	// container fails.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrAuthenticationFailed is returned when a container's integrity tag
	// does not verify. The file must not be trusted.
	ErrAuthenticationFailed = errors.New("container authentication failed")

	// ErrBadContainer is returned when a file is not a recognizable
	// encrypted container at all.
	ErrBadContainer = errors.New("not an encrypted container")

	// ErrUnsupportedVersion is returned when a database document declares a
	// version other than FormatVersion.
	ErrUnsupportedVersion = errors.New("unsupported database version")

	// ErrMalformedDatabase is returned when a database document fails to
	// decode structurally.
	ErrMalformedDatabase = errors.New("malformed database")

	// ErrUnboundRecord is returned when a record handle is used before it
	// has been attached to a session.
	ErrUnboundRecord = errors.New("record is not bound to a session")

	// ErrRecordNotFound is returned when no live record has the requested
	// path.
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordExists is returned when creating or renaming to a path that
	// is already live.
	ErrRecordExists = errors.New("record already exists at this path")

	// ErrSessionClosed is returned when operating on a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNoSharedFolder is returned by Sync when the configuration names no
	// shared folder.
	ErrNoSharedFolder = errors.New("no shared folder configured")
)

// MtimeConflict reports two writes with identical mtime and differing
// values for the same field. It signals genuinely simultaneous edits and is
// deliberately not auto-resolved; the operator must pick a value.
type MtimeConflict struct {
	RecordID  string
	Domain    Domain
	FieldName string
	Mtime     int64
}

func (e *MtimeConflict) Error() string {
	id := e.RecordID
	if id == "" {
		id = "<unknown record>"
	}
	return fmt.Sprintf("conflicting values for %s.%s of record %s at mtime %d",
		e.Domain, e.FieldName, id, e.Mtime)
}

// PathCollision reports that two or more records converged on the same live
// path after a merge. It is advisory: the field data merged cleanly, but
// the operator should rename one of the records.
type PathCollision struct {
	Path      string
	RecordIDs []string
}

func (e *PathCollision) Error() string {
	return fmt.Sprintf("records %s share path %q",
		strings.Join(e.RecordIDs, ", "), e.Path)
}
