// Config loading for the passmate CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/passmate/pkg/types"
)

// EnvConfig overrides the configuration file location.
const EnvConfig = "PASSMATE_CONFIG"

// Config keys.
const (
	cfgKeyPrimaryDB    = "primary_db"
	cfgKeySharedFolder = "shared_folder"
	cfgKeyHostID       = "host_id"
)

// resolveConfigPath returns the config file from flag, environment, or the
// per-user default.
func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(EnvConfig); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, ".config", "passmate", "config.yaml"), nil
}

// loadConfig reads the YAML configuration with Viper, seeding a default
// config file on first run so users have something to edit.
func loadConfig(flagValue string) (types.Config, error) {
	path, err := resolveConfigPath(flagValue)
	if err != nil {
		return types.Config{}, err
	}
	defaults, err := types.DefaultConfig()
	if err != nil {
		return types.Config{}, errors.Wrap(err, "compute config defaults")
	}
	if err := ensureDefaultConfigFile(path, defaults); err != nil {
		return types.Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault(cfgKeyPrimaryDB, defaults.PrimaryDB)
	v.SetDefault(cfgKeySharedFolder, defaults.SharedFolder)
	v.SetDefault(cfgKeyHostID, defaults.HostID)
	if err := v.ReadInConfig(); err != nil {
		return types.Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// ensureDefaultConfigFile writes a commented default config on first run.
// An existing file is never touched.
func ensureDefaultConfigFile(path string, defaults types.Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat config %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	content := fmt.Sprintf(`# Passmate configuration

# Encrypted primary database of this host.
primary_db: %s

# Directory shared with other hosts for synchronization. Leave empty to
# disable sync.
shared_folder: %s

# Name under which this host publishes its sync copy. Must be unique among
# the hosts sharing the folder.
host_id: %s
`, defaults.PrimaryDB, defaults.SharedFolder, defaults.HostID)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return errors.Wrapf(err, "write default config %s", path)
	}
	return nil
}
