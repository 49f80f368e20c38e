package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/passmate/internal/generate"
)

var generateCmd = &cobra.Command{
	Use:   "generate [template]",
	Short: "Generate a password without storing it",
	Long: `Generate a password from a template string like "Aaaaaa!aaaaaa5". Each
character class present in the template (lowercase, uppercase, digits,
punctuation) appears at least once; the template's length sets the
password length.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		template := generate.DefaultTemplate
		if len(args) == 1 {
			template = args[0]
		}
		gen, err := generate.FromTemplate(template)
		if err != nil {
			return err
		}
		password, err := gen.Password()
		if err != nil {
			return err
		}
		fmt.Println(password)
		return nil
	},
}
