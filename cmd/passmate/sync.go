package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/session"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge peer sync copies and republish this host's copy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			// Hosts may use different passphrases; prompt per peer file
			// only when the session's own passphrase does not open one.
			summary, err := sess.Sync(func(file string) (string, error) {
				return readPassphrase(fmt.Sprintf("Passphrase to open %s: ",
					filepath.Base(file)))
			})
			if err != nil {
				return err
			}
			for _, msg := range summary.Messages() {
				fmt.Println(msg)
			}
			fmt.Printf("Sync finished: %d updates applied.\n", summary.Applied())
			return nil
		})
	},
}
