package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/session"
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a record",
	Long: `Delete a record. The record disappears from listings but its history is
retained so the deletion propagates to other hosts on sync.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			return sess.Delete(args[0])
		})
	},
}
