package commands

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"syscall"

	"github.com/Rohanpatel16/projectverify/batch"
	"github.com/Rohanpatel16/projectverify/csvimport"
	"github.com/Rohanpatel16/projectverify/permutation"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/runtimer"
	"github.com/Rohanpatel16/projectverify/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type CSVSettings struct {
	Mapping   csvimport.Mapping
	Validate  bool
	Out       string
	BatchSize int
	ASCIIFold bool
}

var csvSettings = &CSVSettings{}

var csvCmd = &cobra.Command{
	Use:   "csv <file>",
	Short: "Generate addresses for every row of a CSV or XLSX file, and optionally validate them",
	Long: `Generates the likely addresses for every row. Columns that aren't named with a flag are guessed from the
header row. With --validate the addresses are validated in batches, an interrupt pauses the run after the current
batch and a second interrupt stops it. The results collected so far are still written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if csvSettings.Out != "" && !csvSettings.Validate {
			return errors.New("--out requires --validate")
		}

		table, err := csvimport.ParseFile(args[0])
		if err != nil {
			return err
		}

		mapping := mergeMapping(csvimport.Guess(table.Headers), csvSettings.Mapping)

		var options []permutation.Option
		if csvSettings.ASCIIFold {
			options = append(options, permutation.WithASCIIFold())
		}

		generated, err := csvimport.Generate(table, mapping, permutation.New(options...))
		if err != nil {
			return err
		}

		env.logger.WithFields(logrus.Fields{
			"rows":    len(table.Rows),
			"emails":  len(generated),
			"mapping": mapping,
		}).Info("Generated addresses")

		if !csvSettings.Validate {
			jsonEncoder := json.NewEncoder(cmd.OutOrStdout())
			for _, g := range generated {
				if err := jsonEncoder.Encode(g); err != nil {
					return err
				}
			}

			return nil
		}

		results, runErr := validateGenerated(cmd.Context(), generated)

		if err := writeJSONLines(cmd.OutOrStdout(), results); err != nil {
			return err
		}

		if csvSettings.Out != "" {
			if err := writeValidEmails(csvSettings.Out, results, generated); err != nil {
				return err
			}
		}

		return runErr
	},
}

// mergeMapping replaces the guessed columns by the explicitly selected ones
func mergeMapping(guessed, explicit csvimport.Mapping) csvimport.Mapping {
	if explicit.FirstName != "" {
		guessed.FirstName = explicit.FirstName
	}

	if explicit.LastName != "" {
		guessed.LastName = explicit.LastName
	}

	if explicit.Domain != "" {
		guessed.Domain = explicit.Domain
	}

	return guessed
}

func validateGenerated(ctx context.Context, generated []types.GeneratedEmail) ([]provider.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc, err := env.validationService(ctx, "")
	if err != nil {
		return nil, err
	}

	size := csvSettings.BatchSize
	if size < 1 {
		size = svc.Settings().BatchSize
	}

	run := batch.New(svc, generated,
		batch.WithBatchSize(size),
		batch.WithDelay(env.conf.Validation.BatchDelay.AsDuration()),
		batch.WithLogger(env.logger),
		batch.WithProgress(func(s batch.Status) {
			env.logger.WithFields(logrus.Fields{
				"state":    s.State,
				"progress": s.Progress(),
				"valid":    len(s.Valid),
			}).Info("Progress")
		}),
	)

	sh := runtimer.New(2, os.Interrupt, syscall.SIGTERM)
	defer sh.Stop()

	sh.RegisterCallback(func(s os.Signal, n int) {
		if n == 1 {
			env.logger.Warn("Pausing after the current batch, interrupt again to stop")
			run.Pause()
			return
		}

		env.logger.Warn("Stopping")
		cancel()
	})

	err = run.Start(ctx)
	if errors.Is(err, context.Canceled) {
		status := run.Status()
		env.logger.WithFields(logrus.Fields{
			"processed": status.Processed,
			"total":     status.Total,
		}).Warn("Run stopped")

		err = nil
	}

	return run.Results(), err
}

func init() {
	rootCmd.AddCommand(csvCmd)

	csvCmd.Flags().StringVar(&csvSettings.Mapping.FirstName, "first-col", "", "The column holding first names, guessed from the header when empty")
	csvCmd.Flags().StringVar(&csvSettings.Mapping.LastName, "last-col", "", "The column holding last names, guessed from the header when empty")
	csvCmd.Flags().StringVar(&csvSettings.Mapping.Domain, "domain-col", "", "The column holding domains or websites, guessed from the header when empty")
	csvCmd.Flags().BoolVar(&csvSettings.Validate, "validate", false, "Validate the generated addresses")
	csvCmd.Flags().StringVar(&csvSettings.Out, "out", "", "Write the valid addresses as CSV to this file or directory")
	csvCmd.Flags().IntVar(&csvSettings.BatchSize, "batch-size", 0, "Addresses per batch, the configured batch size when 0")
	csvCmd.Flags().BoolVar(&csvSettings.ASCIIFold, "ascii", false, "Strip diacritics from the names")
}
