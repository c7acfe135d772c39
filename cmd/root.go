// Package cmd defines the command line entry points
package cmd

import (
	"github.com/Rusal42/floofwebsite/config"
	"github.com/Rusal42/floofwebsite/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "floofwebsite",
	Short:         "Website API and stats relay for the Floof Discord bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config.toml file")
	rootCmd.PersistentFlags().String("log-level", "", "Overrides app.log_level")

	rootCmd.AddCommand(serveCmd, pushCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// setup loads the config and installs the global logger, shared by every
// subcommand
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Setup(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.Setup(cfg.App.LogLevel, cfg.Sentry.DSN)
	if err != nil {
		return nil, nil, err
	}

	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	return cfg, log, nil
}
