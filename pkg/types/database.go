package types

import "sort"

// FormatVersion is the database document version this release reads and
// writes. Files carrying any other version are rejected; migration lives
// outside the core (see internal/migrate for v1).
const FormatVersion = 2

// Purpose distinguishes a host's canonical, editable database from the
// read-only snapshots it exports for peers.
type Purpose string

const (
	// PurposePrimary marks the host's canonical local copy.
	PurposePrimary Purpose = "primary"
	// PurposeSyncCopy marks an exported snapshot written for peers to merge
	// from. A sync copy is never opened for editing.
	PurposeSyncCopy Purpose = "sync_copy"
)

// Valid reports whether p is a recognized purpose.
func (p Purpose) Valid() bool {
	return p == PurposePrimary || p == PurposeSyncCopy
}

// Database is the full document persisted inside an encrypted container:
// a map of opaque record ids to their field logs.
type Database struct {
	Version int
	Purpose Purpose
	Records map[string]RecordLog
}

// NewDatabase returns an empty primary database at the current format
// version.
func NewDatabase() *Database {
	return &Database{
		Version: FormatVersion,
		Purpose: PurposePrimary,
		Records: make(map[string]RecordLog),
	}
}

// Apply routes the update to its record's log. It reports whether the
// update took effect; stale writes are discarded silently.
func (db *Database) Apply(u Update) bool {
	log, applied := db.Records[u.RecordID].Apply(u.Tuple)
	if applied {
		db.Records[u.RecordID] = log
	}
	return applied
}

// RecordIDs returns the ids of all records, live or hidden, sorted.
func (db *Database) RecordIDs() []string {
	ids := make([]string, 0, len(db.Records))
	for id := range db.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SyncCopy returns a full snapshot of the database marked for export.
// Logs are shared with the receiver; they are immutable by convention
// (Apply copies on write).
func (db *Database) SyncCopy() *Database {
	out := &Database{
		Version: db.Version,
		Purpose: PurposeSyncCopy,
		Records: make(map[string]RecordLog, len(db.Records)),
	}
	for id, log := range db.Records {
		out.Records[id] = log
	}
	return out
}

// Equal reports structural equality of two databases under log set
// equality.
func (db *Database) Equal(other *Database) bool {
	if db.Version != other.Version || db.Purpose != other.Purpose {
		return false
	}
	if len(db.Records) != len(other.Records) {
		return false
	}
	for id, log := range db.Records {
		otherLog, ok := other.Records[id]
		if !ok || !log.Equal(otherLog) {
			return false
		}
	}
	return true
}
