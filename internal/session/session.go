// Package session orchestrates the lifecycle of a primary database: it
// sequences locking, decryption, projection, merging against peer sync
// copies, and atomic persistence.
//
// A session moves through Closed -> Locked -> Loaded -> (Dirty <-> Clean)
// -> Closed. Any component that provides a user interface should create one
// Session and keep it open until the interactive session ends.
package session

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/passmate/internal/container"
	"github.com/mesh-intelligence/passmate/internal/rawdb"
	"github.com/mesh-intelligence/passmate/pkg/types"
)

// Starter collects everything needed to open a session. Zero-value Clock
// and KDF fall back to the system clock and a one-time calibration.
type Starter struct {
	Config     types.Config
	Passphrase string

	// Init creates a fresh empty primary database instead of loading one.
	// Starting with Init on an existing database fails, as does starting
	// without Init when no database exists.
	Init bool

	// Clock overrides the tuple mtime source. Nil means wall clock.
	Clock Clock

	// KDF overrides the container cost parameters. Nil means calibrate to
	// the default time budget on first save.
	KDF *container.Params
}

// Session is the exclusive handle on a primary database. It is safe for
// concurrent use within one process; cross-process exclusion is the lock
// file's job.
type Session struct {
	cfg        types.Config
	passphrase string
	clock      Clock
	kdf        *container.Params

	mu            sync.Mutex
	lock          *os.File
	db            *types.Database
	dirty         bool
	closed        bool
	reloadCounter int

	// Projection cache, invalidated per record on mutation and wholesale
	// after a merge. The path index is rebuilt lazily from it.
	proj       map[string]map[types.FieldKey]types.Value
	pathIndex  map[string]string
	stalePaths bool
}

// Start acquires the database lock and loads (or initializes) the primary
// database. On any failure the lock is released and the on-disk state is
// left untouched.
func (st Starter) Start() (*Session, error) {
	if err := st.Config.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(st.Config.PrimaryDB), 0700); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}

	lock, err := acquireLock(st.Config.LockPath())
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:        st.Config,
		passphrase: st.Passphrase,
		clock:      st.Clock,
		kdf:        st.KDF,
		lock:       lock,
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if err := s.load(st.Init); err != nil {
		releaseLock(lock)
		return nil, err
	}
	return s, nil
}

func (s *Session) load(init bool) error {
	_, err := os.Stat(s.cfg.PrimaryDB)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "stat primary database")
	}

	switch {
	case init && exists:
		return errors.Wrap(types.ErrDBAlreadyExists, s.cfg.PrimaryDB)
	case init:
		s.db = types.NewDatabase()
		// A fresh database is dirty so that Close materializes the file.
		s.dirty = true
	case !exists:
		return errors.Wrap(types.ErrDBDoesNotExist, s.cfg.PrimaryDB)
	default:
		data, err := os.ReadFile(s.cfg.PrimaryDB)
		if err != nil {
			return errors.Wrap(err, "read primary database")
		}
		plaintext, err := container.Decrypt(data, s.passphrase)
		if err != nil {
			return err
		}
		db, err := rawdb.Deserialize(plaintext)
		if err != nil {
			return err
		}
		if db.Purpose != types.PurposePrimary {
			return errors.Wrapf(types.ErrMalformedDatabase,
				"%s is a %s, not a primary database", s.cfg.PrimaryDB, db.Purpose)
		}
		s.db = db
	}

	s.reloadCounter = 1
	s.proj = make(map[string]map[types.FieldKey]types.Value)
	s.stalePaths = true
	log.WithFields(log.Fields{
		"db":      s.cfg.PrimaryDB,
		"records": len(s.db.Records),
		"init":    init,
	}).Debug("session loaded")
	return nil
}

// Save encrypts and persists the primary database, clean or dirty.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	return s.save()
}

// save encrypts and atomically replaces the primary file. Callers hold mu.
func (s *Session) save() error {
	plaintext, err := rawdb.Serialize(s.db)
	if err != nil {
		return err
	}
	sealed, err := container.Encrypt(plaintext, s.passphrase, s.params())
	if err != nil {
		return err
	}
	if err := rawdb.WriteFileAtomic(s.cfg.PrimaryDB, sealed, 0600); err != nil {
		return err
	}
	s.dirty = false
	log.WithFields(log.Fields{
		"db":      s.cfg.PrimaryDB,
		"records": len(s.db.Records),
	}).Debug("primary database saved")
	return nil
}

// params returns the container cost parameters, calibrating them once per
// session if none were injected.
func (s *Session) params() container.Params {
	if s.kdf == nil {
		p := container.Calibrate(container.DefaultTimeBudget, container.DefaultMaxMemory)
		s.kdf = &p
		log.WithFields(log.Fields{
			"logN": p.LogN, "r": p.R, "p": p.P,
		}).Debug("calibrated container parameters")
	}
	return *s.kdf
}

// Close persists the database if the session is dirty and releases the
// lock. The lock is released on every path, including a failed save.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var saveErr error
	if s.dirty {
		saveErr = s.save()
	}
	if err := releaseLock(s.lock); err != nil && saveErr == nil {
		saveErr = err
	}
	s.lock = nil
	return saveErr
}

// Dirty reports whether in-memory state differs from the file.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ReloadCounter increments every time the live view is rebuilt from a
// changed database, i.e. on load and after every merge that applied
// updates. Collaborators caching derived views compare it to detect
// staleness.
func (s *Session) ReloadCounter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadCounter
}

// List returns the live paths of all visible records, sorted. Records
// whose paths collide appear disambiguated with a "#<record-id>" suffix.
func (s *Session) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrSessionClosed
	}
	index := s.paths()
	out := make([]string, 0, len(index))
	for path := range index {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

// Create makes a new record live at the given path and returns its bound
// handle.
func (s *Session) Create(path string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrSessionClosed
	}
	if path == "" {
		return nil, errors.New("record path must not be empty")
	}
	if _, taken := s.paths()[path]; taken {
		return nil, errors.Wrap(types.ErrRecordExists, path)
	}

	r := &Record{sess: s, state: statePendingCreate, id: uuid.NewString()}
	s.applyLocal(types.Update{
		RecordID: r.id,
		Tuple: types.FieldTuple{
			Domain:    types.DomainMeta,
			FieldName: types.FieldPath,
			Value:     types.SomeValue(path),
			Mtime:     s.clock.Now(),
		},
	})
	r.state = stateBound
	return r, nil
}

// Record returns a bound handle for the live record at path.
func (s *Session) Record(path string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrSessionClosed
	}
	id, ok := s.paths()[path]
	if !ok {
		return nil, errors.Wrap(types.ErrRecordNotFound, path)
	}
	return &Record{sess: s, state: stateBound, id: id}, nil
}

// Delete hides the record at path by unsetting its meta path. The field
// log is retained for future merge reconciliation.
func (s *Session) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	id, ok := s.paths()[path]
	if !ok {
		return errors.Wrap(types.ErrRecordNotFound, path)
	}
	s.applyLocal(types.Update{
		RecordID: id,
		Tuple: types.FieldTuple{
			Domain:    types.DomainMeta,
			FieldName: types.FieldPath,
			Value:     types.NoValue(),
			Mtime:     s.clock.Now(),
		},
	})
	return nil
}

// Rename moves the record at oldPath to newPath.
func (s *Session) Rename(oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	if newPath == "" {
		return errors.New("record path must not be empty")
	}
	id, ok := s.paths()[oldPath]
	if !ok {
		return errors.Wrap(types.ErrRecordNotFound, oldPath)
	}
	if _, taken := s.paths()[newPath]; taken {
		return errors.Wrap(types.ErrRecordExists, newPath)
	}
	s.applyLocal(types.Update{
		RecordID: id,
		Tuple: types.FieldTuple{
			Domain:    types.DomainMeta,
			FieldName: types.FieldPath,
			Value:     types.SomeValue(newPath),
			Mtime:     s.clock.Now(),
		},
	})
	return nil
}

// ApplyUpdate applies a raw update carrying its own mtime and reports
// whether it took effect. Stale writes are discarded silently. This is the
// ingestion path for migration tooling; interactive mutations go through
// Record handles, which stamp the session clock.
func (s *Session) ApplyUpdate(u types.Update) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, types.ErrSessionClosed
	}
	if u.RecordID == "" {
		return false, errors.Wrap(types.ErrMalformedDatabase, "empty record id")
	}
	return s.applyLocal(u), nil
}

// applyLocal applies one update and maintains the cache. Callers hold mu.
func (s *Session) applyLocal(u types.Update) bool {
	if !s.db.Apply(u) {
		return false
	}
	s.dirty = true
	s.invalidate(u.RecordID, u.Tuple.Domain == types.DomainMeta)
	return true
}

func (s *Session) invalidate(id string, touchedMeta bool) {
	delete(s.proj, id)
	if touchedMeta {
		s.stalePaths = true
	}
}

// invalidateAll drops every cached projection after a merge changed an
// unknown set of records.
func (s *Session) invalidateAll() {
	s.proj = make(map[string]map[types.FieldKey]types.Value)
	s.stalePaths = true
	s.reloadCounter++
}

// projection returns the cached live view of one record, rebuilding it if
// the record was touched since the last look. Callers hold mu.
func (s *Session) projection(id string) (map[types.FieldKey]types.Value, error) {
	if view, ok := s.proj[id]; ok {
		return view, nil
	}
	view, err := s.db.Records[id].Project()
	if err != nil {
		var conflict *types.MtimeConflict
		if errors.As(err, &conflict) {
			conflict.RecordID = id
		}
		return nil, err
	}
	s.proj[id] = view
	return view, nil
}

// paths returns the live path index, rebuilding it only when a meta field
// changed. Colliding paths are kept reachable by suffixing the record id,
// which is deterministic and order-independent. Callers hold mu.
func (s *Session) paths() map[string]string {
	if !s.stalePaths {
		return s.pathIndex
	}

	byPath := make(map[string][]string)
	for _, id := range s.db.RecordIDs() {
		view, err := s.projection(id)
		if err != nil {
			// Unprojectable records stay hidden until the conflict is
			// resolved; they are reported by Sync, not here.
			continue
		}
		v, ok := view[types.FieldKey{Domain: types.DomainMeta, FieldName: types.FieldPath}]
		if !ok {
			continue
		}
		byPath[v.Str] = append(byPath[v.Str], id)
	}

	index := make(map[string]string, len(byPath))
	for path, ids := range byPath {
		if len(ids) == 1 {
			index[path] = ids[0]
			continue
		}
		for _, id := range ids {
			index[path+"#"+id] = id
		}
	}
	s.pathIndex = index
	s.stalePaths = false
	return index
}
