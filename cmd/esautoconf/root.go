package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "ESAUTOCONF"

type app struct {
	cfgFile    string
	properties []string
	format     string
	logLevel   string
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "esautoconf",
		Short: "Inspect the Elasticsearch auto-configuration",
		Long: `Resolve the Elasticsearch auto-configuration against properties taken,
weakest first, from built-in defaults, a properties file, ESAUTOCONF_*
environment variables and --property flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initLogger()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "properties file (yaml, json, toml or properties)")
	flags.StringArrayVarP(&a.properties, "property", "p", nil, "inline property key=value (repeatable)")
	flags.StringVarP(&a.format, "format", "o", "text", "output format: text, json or yaml")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(newReportCmd(a), newPropertiesCmd(a), newTraceCmd(a))
	return root
}

func (a *app) initLogger() error {
	level, err := zapcore.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.logger = logger
	return nil
}
