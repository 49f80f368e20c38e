package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/session"
)

var unsetCmd = &cobra.Command{
	Use:   "unset <path> <field>",
	Short: "Delete a field from a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			rec, err := sess.Record(args[0])
			if err != nil {
				return err
			}
			return rec.Unset(args[1])
		})
	},
}
