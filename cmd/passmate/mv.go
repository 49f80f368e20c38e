package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/session"
)

var mvCmd = &cobra.Command{
	Use:   "mv <old-path> <new-path>",
	Short: "Rename a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			return sess.Rename(args[0], args[1])
		})
	},
}
