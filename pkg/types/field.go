package types

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Domain partitions field names into two namespaces: "meta" for fields
// managed by passmate itself, "user" for fields owned by the user.
type Domain string

const (
	DomainMeta Domain = "meta"
	DomainUser Domain = "user"
)

// FieldPath is the one meta field every live record carries. A record whose
// projected meta path is absent is hidden from the user, but its log is
// retained so it can still take part in merges.
const FieldPath = "path"

// Valid reports whether d is a recognized domain.
func (d Domain) Valid() bool {
	return d == DomainMeta || d == DomainUser
}

// Value is an optional field value. An unset Value is encoded as JSON null
// and marks the field as deleted.
type Value struct {
	Str string
	Set bool
}

// SomeValue returns a set Value holding s.
func SomeValue(s string) Value {
	return Value{Str: s, Set: true}
}

// NoValue returns the unset Value.
func NoValue() Value {
	return Value{}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Str)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Value{Str: s, Set: true}
	return nil
}

// FieldTuple is one immutable, timestamped modification of a single named
// field within a record. Mtime is seconds since the epoch; it is only ever
// compared, never interpreted as a wall-clock instant.
type FieldTuple struct {
	Domain    Domain
	FieldName string
	Value     Value
	Mtime     int64
}

// FieldKey identifies a field independent of time.
type FieldKey struct {
	Domain    Domain
	FieldName string
}

// Key returns the time-independent identity of the tuple's field.
func (t FieldTuple) Key() FieldKey {
	return FieldKey{Domain: t.Domain, FieldName: t.FieldName}
}

// MarshalJSON encodes the tuple in its wire form, a four-element array:
// [domain, field_name, value|null, mtime].
func (t FieldTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{t.Domain, t.FieldName, t.Value, t.Mtime})
}

func (t *FieldTuple) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 4 {
		return errors.Errorf("field tuple has %d elements, want 4", len(arr))
	}
	var out FieldTuple
	if err := json.Unmarshal(arr[0], &out.Domain); err != nil {
		return errors.Wrap(err, "field tuple domain")
	}
	if !out.Domain.Valid() {
		return errors.Errorf("unknown field tuple domain %q", out.Domain)
	}
	if err := json.Unmarshal(arr[1], &out.FieldName); err != nil {
		return errors.Wrap(err, "field tuple name")
	}
	if out.FieldName == "" {
		return errors.New("field tuple name is empty")
	}
	if err := json.Unmarshal(arr[2], &out.Value); err != nil {
		return errors.Wrap(err, "field tuple value")
	}
	if err := json.Unmarshal(arr[3], &out.Mtime); err != nil {
		return errors.Wrap(err, "field tuple mtime")
	}
	*t = out
	return nil
}

func (t FieldTuple) String() string {
	if !t.Value.Set {
		return fmt.Sprintf("%s.%s=<unset> @%d", t.Domain, t.FieldName, t.Mtime)
	}
	return fmt.Sprintf("%s.%s=%q @%d", t.Domain, t.FieldName, t.Value.Str, t.Mtime)
}

// Update names a single field tuple to apply to one record.
type Update struct {
	RecordID string
	Tuple    FieldTuple
}

func (u Update) String() string {
	return fmt.Sprintf("%s: %s", u.RecordID, u.Tuple)
}
