package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/pkg/passmate"
	"github.com/mesh-intelligence/passmate/pkg/types"
)

// Global flag values.
var (
	flagConfig  string
	flagVerbose bool
)

// cfg is the loaded configuration, set by PersistentPreRunE so every
// subcommand can use it.
var cfg types.Config

var rootCmd = &cobra.Command{
	Use:     "passmate",
	Short:   "Passmate is an encrypted, synchronizable secrets store",
	Version: passmate.Version,
	Long: `Passmate keeps credentials in an encrypted database that can be
replicated across hosts through any shared folder and merged without
coordination. Synchronization transport (file copy, cloud sync) is left to
external tools; passmate only reads and writes local files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
		var err error
		cfg, err = loadConfig(flagConfig)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"configuration file (default: ~/.config/passmate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(unsetCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(migrateCmd)
}
