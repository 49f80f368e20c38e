package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/migrate"
	"github.com/mesh-intelligence/passmate/pkg/types"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <v1-database> <output-database>",
	Short: "Migrate a version 1 database to the current format",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, dest := args[0], args[1]

		srcPass, err := readPassphrase(fmt.Sprintf("Passphrase to open %s: ", src))
		if err != nil {
			return err
		}
		destPass, err := readNewPassphrase(dest)
		if err != nil {
			return err
		}

		destCfg := types.Config{
			PrimaryDB: dest,
			HostID:    cfg.HostID,
		}
		stats, err := migrate.Migrate(src, srcPass, destCfg, destPass, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Migrated %d records with %d updates to %s.\n",
			stats.Records, stats.Updates, dest)
		return nil
	},
}
