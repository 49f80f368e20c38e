package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/session"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new empty primary database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := readNewPassphrase(cfg.PrimaryDB)
		if err != nil {
			return err
		}
		sess, err := session.Starter{
			Config:     cfg,
			Passphrase: pass,
			Init:       true,
		}.Start()
		if err != nil {
			return err
		}
		if err := sess.Close(); err != nil {
			return err
		}
		fmt.Printf("Created %s.\n", cfg.PrimaryDB)
		return nil
	},
}
