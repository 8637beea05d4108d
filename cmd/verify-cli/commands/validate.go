package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rohanpatel16/projectverify/cmd/verify-cli/iterator"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type ValidateSettings struct {
	Format   string
	CSV      csvOptions
	Provider provider.ID
}

var validateSettings = &ValidateSettings{}

var validateCmd = &cobra.Command{
	Use:   "validate [email]",
	Short: "Validate email addresses",
	Long: `Validates a single address, or the addresses read from stdin, with the configured provider. Addresses read
from stdin are validated in batches. Every result is written as a line of JSON.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return errors.New("too many arguments, expected 0 or 1")
		}

		if len(args) == 0 && !isStdinPiped() {
			return errors.New("missing argument")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var it *iterator.CallbackIterator
		if len(args) > 0 {
			it = createTextIterator(strings.NewReader(args[0]))
		} else {
			var err error
			if it, err = inputIterator(cmd.InOrStdin(), validateSettings.Format, validateSettings.CSV); err != nil {
				return err
			}
		}

		emails, err := iterator.Collect(it, func(err error) {
			cmd.PrintErrln(err)
		})

		if err != nil {
			return err
		}

		svc, err := env.validationService(cmd.Context(), validateSettings.Provider)
		if err != nil {
			return err
		}

		env.logger.WithFields(logrus.Fields{
			"emails":   len(emails),
			"provider": svc.Provider(),
		}).Debug("Validating")

		results := svc.ValidateBulkEmails(cmd.Context(), emails)

		return writeJSONLines(cmd.OutOrStdout(), results)
	},
}

func inputIterator(r io.Reader, format string, opts csvOptions) (*iterator.CallbackIterator, error) {
	switch format {
	case "", "text":
		return createTextIterator(r), nil
	case "csv":
		return createCSVIterator(r, opts), nil
	}

	return nil, fmt.Errorf("bad format %q", format)
}

func writeJSONLines(w io.Writer, results []provider.Result) error {
	jsonEncoder := json.NewEncoder(w)
	for _, r := range results {
		if err := jsonEncoder.Encode(r); err != nil {
			return err
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateSettings.Format, "format", "text", "text or csv. Text means a single email address per line '\\n'")
	validateCmd.Flags().Uint64Var(&validateSettings.CSV.skipRows, "csv-skip-rows", 0, "Rows to skip, useful when wanting to skip the header in CSV files")
	validateCmd.Flags().Uint64Var(&validateSettings.CSV.column, "csv-column", 0, "The column to read email addresses from, 0-indexed")
	validateCmd.Flags().Var(&validateSettings.Provider, "provider", "Use this provider instead of the configured one, the setting isn't changed")
}

