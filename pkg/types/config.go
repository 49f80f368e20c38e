package types

import (
	"errors"
	"os"
	"path/filepath"
)

// Config validation errors.
var (
	ErrNoPrimaryDB = errors.New("primary_db must not be empty")
	ErrNoHostID    = errors.New("host_id must not be empty")
)

// DatabaseFileExt is the filename extension of encrypted database files,
// primary and sync copies alike.
const DatabaseFileExt = ".pmdb"

// Config locates a host's primary database and the shared folder used for
// synchronization. SharedFolder may be empty, which disables sync.
type Config struct {
	PrimaryDB    string `json:"primary_db" yaml:"primary_db" mapstructure:"primary_db"`
	SharedFolder string `json:"shared_folder" yaml:"shared_folder" mapstructure:"shared_folder"`
	HostID       string `json:"host_id" yaml:"host_id" mapstructure:"host_id"`
}

// DefaultConfig returns the conventional per-user configuration: database
// and sync folder under ~/.local/share/passmate, host id from the system
// hostname.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	host, err := os.Hostname()
	if err != nil {
		return Config{}, err
	}
	share := filepath.Join(home, ".local", "share", "passmate")
	return Config{
		PrimaryDB:    filepath.Join(share, "local"+DatabaseFileExt),
		SharedFolder: filepath.Join(share, "sync"),
		HostID:       host,
	}, nil
}

// Validate checks that the Config is well-formed. The host id is required
// even without a shared folder so that enabling sync later cannot produce
// an unnamed sync copy.
func (c Config) Validate() error {
	if c.PrimaryDB == "" {
		return ErrNoPrimaryDB
	}
	if c.HostID == "" {
		return ErrNoHostID
	}
	return nil
}

// LockPath returns the sidecar lock file guarding the primary database.
func (c Config) LockPath() string {
	return c.PrimaryDB + ".lock"
}

// SyncCopyName returns the filename under which this host publishes its
// sync copy. Peers recognize and skip their own copy by this name.
func (c Config) SyncCopyName() string {
	return c.HostID + DatabaseFileExt
}

// SyncCopyPath returns the full path of this host's sync copy inside the
// shared folder.
func (c Config) SyncCopyPath() string {
	return filepath.Join(c.SharedFolder, c.SyncCopyName())
}
