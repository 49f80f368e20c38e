package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/pathtree"
	"github.com/mesh-intelligence/passmate/internal/session"
)

var listCmd = &cobra.Command{
	Use:   "list [search]",
	Short: "List records as a path tree, optionally filtered",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		search := ""
		if len(args) == 1 {
			search = args[0]
		}
		return withSession(func(sess *session.Session) error {
			paths, err := sess.List()
			if err != nil {
				return err
			}
			pathtree.Build(paths).Render(os.Stdout, search)
			return nil
		})
	},
}
