package session

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/passmate/internal/container"
	"github.com/mesh-intelligence/passmate/internal/rawdb"
	"github.com/mesh-intelligence/passmate/pkg/types"
)

// PeerPassphrase supplies the passphrase for a peer's sync copy when the
// session's own passphrase does not open it. Returning an error skips that
// peer.
type PeerPassphrase func(file string) (string, error)

// Sync merges every peer sync copy found in the shared folder into the
// primary database and republishes this host's own sync copy.
//
// Each peer is handled in isolation: a file that fails to decrypt or decode
// is recorded in the summary and the remaining peers still merge. If any
// merge applied updates the primary is persisted and the live view is
// rebuilt (ReloadCounter increments). The host's own sync copy is rewritten
// in full on every cycle, even when nothing was merged, so peers always see
// the latest local changes. Mutations are excluded for the duration.
func (s *Session) Sync(peer PeerPassphrase) (*SyncSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrSessionClosed
	}
	if s.cfg.SharedFolder == "" {
		return nil, types.ErrNoSharedFolder
	}
	if err := os.MkdirAll(s.cfg.SharedFolder, 0700); err != nil {
		return nil, errors.Wrap(err, "create shared folder")
	}

	files, err := filepath.Glob(filepath.Join(s.cfg.SharedFolder, "*"+types.DatabaseFileExt))
	if err != nil {
		return nil, errors.Wrap(err, "list shared folder")
	}

	summary := NewSyncSummary()
	for _, file := range files {
		if filepath.Base(file) == s.cfg.SyncCopyName() {
			continue
		}
		result, err := s.mergePeer(file, peer)
		if err != nil {
			summary.Failure[file] = err.Error()
			log.WithFields(log.Fields{"peer": file}).WithError(err).
				Warn("skipping peer sync copy")
			continue
		}
		summary.Success[file] = result.Applied
		summary.Conflicts = append(summary.Conflicts, result.Conflicts...)
		log.WithFields(log.Fields{
			"peer":      file,
			"applied":   len(result.Applied),
			"conflicts": len(result.Conflicts),
		}).Debug("merged peer sync copy")
	}
	summary.Collisions = rawdb.PathCollisions(s.db)

	if summary.Applied() > 0 {
		s.dirty = true
		s.invalidateAll()
	}
	if s.dirty {
		if err := s.save(); err != nil {
			return summary, err
		}
	}
	if err := s.exportSyncCopy(); err != nil {
		return summary, err
	}
	return summary, nil
}

// mergePeer decrypts one peer file and merges it into the in-memory
// primary. The session's own passphrase is tried first; on a passphrase
// failure the peer callback may supply a per-host passphrase for one retry.
func (s *Session) mergePeer(file string, peer PeerPassphrase) (rawdb.MergeResult, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return rawdb.MergeResult{}, errors.Wrap(err, "read sync copy")
	}

	plaintext, err := container.Decrypt(data, s.passphrase)
	if errors.Is(err, types.ErrWrongPassphrase) && peer != nil {
		var pass string
		if pass, err = peer(file); err == nil {
			plaintext, err = container.Decrypt(data, pass)
		}
	}
	if err != nil {
		return rawdb.MergeResult{}, err
	}

	remote, err := rawdb.Deserialize(plaintext)
	if err != nil {
		return rawdb.MergeResult{}, err
	}
	if remote.Purpose != types.PurposeSyncCopy {
		return rawdb.MergeResult{}, errors.Wrapf(types.ErrMalformedDatabase,
			"%s is a %s, not a sync copy", file, remote.Purpose)
	}

	merged, result := rawdb.Merge(s.db, remote)
	s.db = merged
	return result, nil
}

// exportSyncCopy republishes the full primary log under this host's name.
func (s *Session) exportSyncCopy() error {
	plaintext, err := rawdb.Serialize(s.db.SyncCopy())
	if err != nil {
		return err
	}
	sealed, err := container.Encrypt(plaintext, s.passphrase, s.params())
	if err != nil {
		return err
	}
	return rawdb.WriteFileAtomic(s.cfg.SyncCopyPath(), sealed, 0600)
}
