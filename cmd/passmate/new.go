package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/session"
)

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Create an empty record at a path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			if _, err := sess.Create(args[0]); err != nil {
				return err
			}
			fmt.Printf("Created record %s.\n", args[0])
			return nil
		})
	},
}
