package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/session"
)

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show all fields of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			rec, err := sess.Record(args[0])
			if err != nil {
				return err
			}
			fields, err := rec.Fields()
			if err != nil {
				return err
			}
			fmt.Println(args[0])
			for _, field := range fields {
				value, _, err := rec.Get(field)
				if err != nil {
					return err
				}
				fmt.Printf("  %s: %s\n", field, value)
			}
			return nil
		})
	},
}
