package session

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/passmate/pkg/types"
)

// recordState tracks the binding of a Record handle. A handle starts
// unbound, passes through pending-create while its path tuple is staged,
// and is bound once it addresses a record inside a session.
type recordState int

const (
	stateUnbound recordState = iota
	statePendingCreate
	stateBound
)

// Record is a handle on one live record of an open session. Handles are
// created by Session.Create and Session.Record; the zero Record is unbound
// and every operation on it fails with ErrUnboundRecord.
type Record struct {
	sess  *Session
	id    string
	state recordState
}

func (r *Record) guard() error {
	switch r.state {
	case stateBound:
		return nil
	case statePendingCreate:
		return errors.Wrap(types.ErrUnboundRecord, "creation still pending")
	default:
		return types.ErrUnboundRecord
	}
}

// ID returns the record's opaque identifier.
func (r *Record) ID() string { return r.id }

// Path returns the record's current live path.
func (r *Record) Path() (string, error) {
	if err := r.guard(); err != nil {
		return "", err
	}
	r.sess.mu.Lock()
	defer r.sess.mu.Unlock()
	if r.sess.closed {
		return "", types.ErrSessionClosed
	}
	view, err := r.sess.projection(r.id)
	if err != nil {
		return "", err
	}
	v, ok := view[types.FieldKey{Domain: types.DomainMeta, FieldName: types.FieldPath}]
	if !ok {
		return "", errors.Wrap(types.ErrRecordNotFound, "record is deleted")
	}
	return v.Str, nil
}

// Get returns the value of a user field. The second result reports whether
// the field is set.
func (r *Record) Get(field string) (string, bool, error) {
	if err := r.guard(); err != nil {
		return "", false, err
	}
	r.sess.mu.Lock()
	defer r.sess.mu.Unlock()
	if r.sess.closed {
		return "", false, types.ErrSessionClosed
	}
	view, err := r.sess.projection(r.id)
	if err != nil {
		return "", false, err
	}
	v, ok := view[types.FieldKey{Domain: types.DomainUser, FieldName: field}]
	if !ok {
		return "", false, nil
	}
	return v.Str, true, nil
}

// Fields returns the names of all set user fields, sorted.
func (r *Record) Fields() ([]string, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	r.sess.mu.Lock()
	defer r.sess.mu.Unlock()
	if r.sess.closed {
		return nil, types.ErrSessionClosed
	}
	view, err := r.sess.projection(r.id)
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(view))
	for key := range view {
		if key.Domain == types.DomainUser {
			fields = append(fields, key.FieldName)
		}
	}
	sort.Strings(fields)
	return fields, nil
}

// Set writes a user field value. A write stamped older than the field's
// current mtime is discarded silently.
func (r *Record) Set(field, value string) error {
	return r.mutate(field, types.SomeValue(value))
}

// Unset deletes a user field.
func (r *Record) Unset(field string) error {
	return r.mutate(field, types.NoValue())
}

func (r *Record) mutate(field string, value types.Value) error {
	if err := r.guard(); err != nil {
		return err
	}
	if field == "" {
		return errors.New("field name must not be empty")
	}
	r.sess.mu.Lock()
	defer r.sess.mu.Unlock()
	if r.sess.closed {
		return types.ErrSessionClosed
	}
	r.sess.applyLocal(types.Update{
		RecordID: r.id,
		Tuple: types.FieldTuple{
			Domain:    types.DomainUser,
			FieldName: field,
			Value:     value,
			Mtime:     r.sess.clock.Now(),
		},
	})
	return nil
}
