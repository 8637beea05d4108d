package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rohanpatel16/projectverify/csvimport"
	"github.com/Rohanpatel16/projectverify/permutation"
	"github.com/spf13/cobra"
)

type GenerateSettings struct {
	FirstName  string
	LastName   string
	Domain     string
	ASCIIFold  bool
	OnlyEmails bool
}

var generateSettings = &GenerateSettings{}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the likely addresses for a person",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		domain := csvimport.CleanDomain(generateSettings.Domain)
		if generateSettings.FirstName == "" || generateSettings.LastName == "" || domain == "" {
			return errors.New("--first, --last and --domain are required")
		}

		var options []permutation.Option
		if generateSettings.ASCIIFold {
			options = append(options, permutation.WithASCIIFold())
		}

		gen := permutation.New(options...)
		emails := gen.GenerateEmails(generateSettings.FirstName, generateSettings.LastName, domain, 0)

		if generateSettings.OnlyEmails {
			for _, e := range emails {
				fmt.Fprintln(cmd.OutOrStdout(), e.Email)
			}

			return nil
		}

		jsonEncoder := json.NewEncoder(cmd.OutOrStdout())
		for _, e := range emails {
			if err := jsonEncoder.Encode(e); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateSettings.FirstName, "first", "", "First name")
	generateCmd.Flags().StringVar(&generateSettings.LastName, "last", "", "Last name")
	generateCmd.Flags().StringVar(&generateSettings.Domain, "domain", "", "Domain or website, e.g. https://www.example.org/")
	generateCmd.Flags().BoolVar(&generateSettings.ASCIIFold, "ascii", false, "Strip diacritics from the names")
	generateCmd.Flags().BoolVar(&generateSettings.OnlyEmails, "plain", false, "Print one address per line, instead of JSON")
}
