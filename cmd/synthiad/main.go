package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lexamoris/synthia/constants"
	"github.com/lexamoris/synthia/kernel/config"
)

// NewRootCmd builds the synthiad command tree. Every call returns a fresh
// tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()
	var (
		cfgFile string
		cfg     *config.Config
	)

	rootCmd := &cobra.Command{
		Use:          "synthiad",
		Short:        "Synthia genesis kernel daemon",
		Long:         fmt.Sprintf("synthiad bootstraps the Synthia genesis kernel (%s) and serves its state over http.", constants.Network),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.GetConfig(v, cfgFile)
			if err != nil {
				return err
			}
			if err := initLogger(c.LogLevel, c.LogFormat); err != nil {
				return err
			}
			cfg = c
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to config file (default ./config.json)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "console", "log output format (console, json)")
	bindFlags(v, flags, map[string]string{
		"log_level":  "log-level",
		"log_format": "log-format",
	})

	loadedConfig := func() *config.Config { return cfg }
	rootCmd.AddCommand(
		newStartCmd(v, loadedConfig),
		newConstantsCmd(),
		newPoliciesCmd(),
		newValidateCmd(),
	)
	return rootCmd
}

func initLogger(level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	switch format {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return nil
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// bindFlags maps config keys to flag names on v.
func bindFlags(v *viper.Viper, flags *flag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %s", name, err))
		}
	}
}
