package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Rohanpatel16/projectverify/cmd/web/config"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/settings"
	"github.com/Rohanpatel16/projectverify/validation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type rootSettings struct {
	ConfigFile string
	LogLevel   string
}

var (
	rootFlags = &rootSettings{}
	env       = &environment{}
)

var rootCmd = &cobra.Command{
	Use:           "verify-cli",
	Short:         "Generate and verify e-mail addresses",
	Long:          `Generates likely e-mail addresses for people and verifies them with one of the supported verification APIs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return env.init(rootFlags, cmd.ErrOrStderr())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		env.close()
	},
}

// environment holds what the commands share, it's set up before any command runs
type environment struct {
	conf     config.Config
	logger   *logrus.Logger
	registry *provider.Registry
	store    settings.Store
}

func (e *environment) init(flags *rootSettings, logOut io.Writer) error {
	var err error

	e.conf = config.Defaults()
	if flags.ConfigFile != "" {
		if e.conf, err = config.NewConfig(flags.ConfigFile); err != nil {
			return err
		}
	}

	e.logger = logrus.New()
	e.logger.Out = logOut
	e.logger.Formatter = &logrus.TextFormatter{DisableColors: !isTerminal(os.Stderr)}
	if e.conf.Server.Log.Format == config.LFJSON {
		e.logger.Formatter = &logrus.JSONFormatter{}
	}

	level := e.conf.Server.Log.Level
	if flags.LogLevel != "" {
		level = flags.LogLevel
	}

	if e.logger.Level, err = logrus.ParseLevel(level); err != nil {
		return err
	}

	options, err := e.conf.ProviderOptions()
	if err != nil {
		return err
	}

	e.registry = provider.NewDefaultRegistry(options...)

	e.store, err = settings.Open(e.conf.Validation.SettingsStore.Kind(), e.conf.SettingsLocation(), e.logger)
	if err != nil {
		return fmt.Errorf("unable to open the settings store %w", err)
	}

	return nil
}

func (e *environment) close() {
	if e.store == nil {
		return
	}

	if err := e.store.Close(); err != nil {
		e.logger.WithError(err).Error("Failed to close the settings store")
	}
}

// validationService returns the facade, the provider overrides the persisted setting without saving it
func (e *environment) validationService(ctx context.Context, override provider.ID) (*validation.Service, error) {
	store := e.store
	if override != "" {
		current, err := e.store.Load(ctx)
		if err != nil {
			current = settings.Defaults()
		}

		current = current.Normalize(e.registry)
		current.Provider = override

		if err := current.Validate(e.registry); err != nil {
			return nil, err
		}

		mem := settings.NewMemory()
		if err := mem.Save(ctx, current); err != nil {
			return nil, err
		}

		store = mem
	}

	return validation.New(ctx, e.registry, store,
		validation.WithLogger(e.logger),
		validation.WithBatchDelay(e.conf.Validation.BatchDelay.AsDuration()),
	), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// isStdinPiped returns true if our input is from a pipe or a redirected file
func isStdinPiped() bool {
	return !isTerminal(os.Stdin)
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.ConfigFile, "config", "", "TOML configuration file, the [validation] and [providers] sections apply")
	rootCmd.PersistentFlags().StringVar(&rootFlags.LogLevel, "log-level", "", "Overrides the configured log level")
}
