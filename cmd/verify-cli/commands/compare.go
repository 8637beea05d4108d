package commands

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/Rohanpatel16/projectverify/compare"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/spf13/cobra"
)

type CompareSettings struct {
	Providers []string
	Limit     int
	Timeout   time.Duration
	Delay     time.Duration
	Out       string
}

var compareSettings = &CompareSettings{}

var compareCmd = &cobra.Command{
	Use:   "compare <email> [email...]",
	Short: "Run addresses through several providers and compare the outcomes",
	Long: `Every address is validated by each selected provider, all providers when none are selected. The configured
validation settings aren't used nor changed. Each outcome is written as a line of JSON, followed by a summary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]provider.ID, 0, len(compareSettings.Providers))
		for _, raw := range compareSettings.Providers {
			var id provider.ID
			if err := id.UnmarshalText([]byte(raw)); err != nil {
				return err
			}

			ids = append(ids, id)
		}

		c := compare.New(env.registry,
			compare.WithLogger(env.logger),
			compare.WithLimit(compareSettings.Limit),
			compare.WithTimeout(compareSettings.Timeout),
			compare.WithDelay(compareSettings.Delay),
		)

		outcomes, runErr := c.Bulk(cmd.Context(), args, ids)
		if errors.Is(runErr, provider.ErrUnknownProvider) {
			return runErr
		}

		jsonEncoder := json.NewEncoder(cmd.OutOrStdout())
		for _, o := range outcomes {
			if err := jsonEncoder.Encode(o); err != nil {
				return err
			}
		}

		summary := struct {
			Summary compare.Summary `json:"summary"`
		}{
			Summary: compare.Stats(outcomes),
		}

		if err := jsonEncoder.Encode(summary); err != nil {
			return err
		}

		if compareSettings.Out != "" {
			if err := writeComparison(compareSettings.Out, outcomes); err != nil {
				return err
			}
		}

		return runErr
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringSliceVar(&compareSettings.Providers, "providers", nil, "Comma separated provider IDs, all providers when empty")
	compareCmd.Flags().IntVar(&compareSettings.Limit, "limit", 0, "Maximum number of providers called at the same time, 0 means no limit")
	compareCmd.Flags().DurationVar(&compareSettings.Timeout, "timeout", 30*time.Second, "Deadline of every provider call, 0 disables it")
	compareCmd.Flags().DurationVar(&compareSettings.Delay, "delay", compare.DefaultDelay, "Pause between two addresses")
	compareCmd.Flags().StringVar(&compareSettings.Out, "out", "", "Also write the outcomes as CSV to this file or directory")
}
