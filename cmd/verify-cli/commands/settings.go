package commands

import (
	"encoding/json"

	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/settings"
	"github.com/Rohanpatel16/projectverify/validation"
	"github.com/spf13/cobra"
)

type SettingsSettings struct {
	Provider  provider.ID
	BatchSize int
	Timeout   int64
}

var settingsSettings = &SettingsSettings{}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the validation settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the validation settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := validation.New(cmd.Context(), env.registry, env.store, validation.WithLogger(env.logger))

		return printSettings(cmd, svc.Settings())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change and persist the validation settings, only the given flags are changed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := validation.New(cmd.Context(), env.registry, env.store, validation.WithLogger(env.logger))

		s := svc.Settings()
		if cmd.Flags().Changed("provider") {
			s.Provider = settingsSettings.Provider
		}

		if cmd.Flags().Changed("batch-size") {
			s.BatchSize = settingsSettings.BatchSize
		}

		if cmd.Flags().Changed("timeout") {
			s.Timeout = settings.Milliseconds(settingsSettings.Timeout)
		}

		if err := svc.SaveSettings(cmd.Context(), s); err != nil {
			return err
		}

		return printSettings(cmd, svc.Settings())
	},
}

func printSettings(cmd *cobra.Command, s settings.Settings) error {
	jsonEncoder := json.NewEncoder(cmd.OutOrStdout())
	jsonEncoder.SetIndent("", "  ")

	return jsonEncoder.Encode(s)
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)

	settingsSetCmd.Flags().Var(&settingsSettings.Provider, "provider", "The provider used for validation")
	settingsSetCmd.Flags().IntVar(&settingsSettings.BatchSize, "batch-size", settings.DefaultBatchSize, "Addresses validated concurrently per batch")
	settingsSetCmd.Flags().Int64Var(&settingsSettings.Timeout, "timeout", int64(settings.DefaultTimeout), "Deadline of a single validation in milliseconds, 0 disables it")
}
