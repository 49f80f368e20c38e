package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/generate"
	"github.com/mesh-intelligence/passmate/internal/session"
)

var setGenerateTemplate string

var setCmd = &cobra.Command{
	Use:   "set <path> <field> [value]",
	Short: "Set a field of a record",
	Long: `Set a field of a record. The value is taken from the argument, from a
generated password when --generate is given, or from a hidden prompt when
neither is present.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, field := args[0], args[1]

		var value string
		switch {
		case len(args) == 3 && setGenerateTemplate != "":
			return errors.New("cannot combine a value argument with --generate")
		case len(args) == 3:
			value = args[2]
		case setGenerateTemplate != "":
			gen, err := generate.FromTemplate(setGenerateTemplate)
			if err != nil {
				return err
			}
			var genErr error
			if value, genErr = gen.Password(); genErr != nil {
				return genErr
			}
			fmt.Printf("Generated %s: %s\n", field, gen.Spec())
		default:
			var err error
			if value, err = readPassphrase(fmt.Sprintf("Value for %s: ", field)); err != nil {
				return err
			}
		}

		return withSession(func(sess *session.Session) error {
			rec, err := sess.Record(path)
			if err != nil {
				return err
			}
			return rec.Set(field, value)
		})
	},
}

func init() {
	setCmd.Flags().StringVar(&setGenerateTemplate, "generate", "",
		"generate the value from a template like \"Aaaaaaaaaaaaa5\"")
	setCmd.Flags().Lookup("generate").NoOptDefVal = generate.DefaultTemplate
}
