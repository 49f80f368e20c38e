// Package rawdb serializes the database document and implements the
// conflict-free merge over field logs.
package rawdb

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/passmate/pkg/types"
)

// body is the JSON document stored inside an encrypted container.
type body struct {
	Version int                        `json:"version"`
	Purpose types.Purpose              `json:"purpose"`
	Records map[string]types.RecordLog `json:"records"`
}

// Serialize encodes the database as its plaintext JSON body. Record ids are
// emitted in sorted order and each log in its canonical descending-mtime
// order, so equal databases serialize identically.
func Serialize(db *types.Database) ([]byte, error) {
	records := make(map[string]types.RecordLog, len(db.Records))
	for id, log := range db.Records {
		sorted := make(types.RecordLog, len(log))
		copy(sorted, log)
		sorted.Sort()
		records[id] = sorted
	}
	data, err := json.Marshal(body{
		Version: db.Version,
		Purpose: db.Purpose,
		Records: records,
	})
	if err != nil {
		return nil, errors.Wrap(err, "serialize database")
	}
	return data, nil
}

// Deserialize decodes a plaintext JSON body, validating version and
// purpose. It fails fast: a document that does not decode cleanly yields
// no partial database.
func Deserialize(data []byte) (*types.Database, error) {
	var b body
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&b); err != nil {
		return nil, errors.Wrap(types.ErrMalformedDatabase, err.Error())
	}
	if b.Version != types.FormatVersion {
		return nil, errors.Wrapf(types.ErrUnsupportedVersion,
			"version %d, want %d", b.Version, types.FormatVersion)
	}
	if !b.Purpose.Valid() {
		return nil, errors.Wrapf(types.ErrMalformedDatabase,
			"unknown purpose %q", b.Purpose)
	}
	db := &types.Database{
		Version: b.Version,
		Purpose: b.Purpose,
		Records: b.Records,
	}
	if db.Records == nil {
		db.Records = make(map[string]types.RecordLog)
	}
	for id, log := range db.Records {
		if id == "" {
			return nil, errors.Wrap(types.ErrMalformedDatabase, "empty record id")
		}
		log.Sort()
	}
	return db, nil
}

// PeekVersion reads only the version declaration of a plaintext body.
// Migration tooling uses it to route old formats without the strict v2
// decode path rejecting them first.
func PeekVersion(data []byte) (int, error) {
	var v struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, errors.Wrap(types.ErrMalformedDatabase, err.Error())
	}
	if v.Version == nil {
		return 0, errors.Wrap(types.ErrMalformedDatabase, "missing version")
	}
	return *v.Version, nil
}
