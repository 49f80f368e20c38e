// Package migrate imports version 1 databases into the current format.
//
// Version 1 stored one combined field name per tuple ("PATH", "SCHEMA", or
// "_<name>") and a list of value lines; version 2 splits names into a
// domain and a field name and stores a single optional string value.
package migrate

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/passmate/internal/container"
	"github.com/mesh-intelligence/passmate/internal/session"
	"github.com/mesh-intelligence/passmate/pkg/types"
)

// Stats reports what a migration imported.
type Stats struct {
	Records int
	Updates int
}

type v1Document struct {
	Version int                  `json:"version"`
	Records map[string][]v1Tuple `json:"records"`
}

// v1Tuple is [combined_field_name, mtime, value_line...].
type v1Tuple struct {
	Name   string
	Mtime  int64
	Values []string
}

func (t *v1Tuple) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) < 2 {
		return errors.Errorf("v1 tuple has %d elements, want at least 2", len(arr))
	}
	var out v1Tuple
	if err := json.Unmarshal(arr[0], &out.Name); err != nil {
		return errors.Wrap(err, "v1 tuple name")
	}
	if err := json.Unmarshal(arr[1], &out.Mtime); err != nil {
		return errors.Wrap(err, "v1 tuple mtime")
	}
	for _, raw := range arr[2:] {
		var line string
		if err := json.Unmarshal(raw, &line); err != nil {
			return errors.Wrap(err, "v1 tuple value")
		}
		out.Values = append(out.Values, line)
	}
	*t = out
	return nil
}

// translate maps a v1 tuple to its v2 form. SCHEMA tuples are dropped and
// translate returns ok=false for them.
func translate(t v1Tuple) (types.FieldTuple, bool, error) {
	var domain types.Domain
	var name string
	switch {
	case t.Name == "PATH":
		domain, name = types.DomainMeta, types.FieldPath
	case t.Name == "SCHEMA":
		return types.FieldTuple{}, false, nil
	case strings.HasPrefix(t.Name, "_"):
		domain, name = types.DomainUser, t.Name[1:]
	default:
		return types.FieldTuple{}, false,
			errors.Errorf("unknown combined field name %q", t.Name)
	}

	value := types.NoValue()
	if len(t.Values) > 0 {
		value = types.SomeValue(strings.Join(t.Values, "\n"))
	}
	return types.FieldTuple{
		Domain:    domain,
		FieldName: name,
		Value:     value,
		Mtime:     t.Mtime,
	}, true, nil
}

// Migrate reads a v1 database, encrypted or plain JSON, and writes its
// content as a freshly initialized primary database at cfg.PrimaryDB.
//
// Tuples are replayed through the session's stale-write discard, so only
// the winning tuple per field survives the import. The projected content
// matches the source either way; superseded v1 history is not carried over.
func Migrate(srcPath, srcPassphrase string, cfg types.Config, destPassphrase string, kdf *container.Params) (Stats, error) {
	plaintext, err := readSource(srcPath, srcPassphrase)
	if err != nil {
		return Stats{}, err
	}

	var doc v1Document
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return Stats{}, errors.Wrap(types.ErrMalformedDatabase, err.Error())
	}
	if doc.Version != 1 {
		return Stats{}, errors.Wrapf(types.ErrUnsupportedVersion,
			"input has version %d, expected 1", doc.Version)
	}

	sess, err := session.Starter{
		Config:     cfg,
		Passphrase: destPassphrase,
		Init:       true,
		KDF:        kdf,
	}.Start()
	if err != nil {
		return Stats{}, err
	}
	defer sess.Close()

	var stats Stats
	for recordID, tuples := range doc.Records {
		for _, old := range tuples {
			tuple, ok, err := translate(old)
			if err != nil {
				return stats, errors.Wrapf(err, "record %s", recordID)
			}
			if !ok {
				continue
			}
			applied, err := sess.ApplyUpdate(types.Update{RecordID: recordID, Tuple: tuple})
			if err != nil {
				return stats, err
			}
			if applied {
				stats.Updates++
			}
		}
		stats.Records++
	}

	if err := sess.Save(); err != nil {
		return stats, err
	}
	return stats, nil
}

// readSource loads the v1 file, decrypting it when it is a container.
// Early v1 databases were plain JSON on disk.
func readSource(path, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read v1 database")
	}
	if bytes.HasPrefix(data, []byte("scrypt")) {
		return container.Decrypt(data, passphrase)
	}
	return data, nil
}
