package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallnest/deepresearch/config"
	"github.com/smallnest/deepresearch/log"
)

// errReported marks failures that were already shown to the user.
var errReported = errors.New("failure already reported")

type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "deepresearch",
		Short:         "Plan, search, scrape and summarize a topic into a Markdown report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./deepresearch.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off (overrides config)")

	root.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newReportsCmd(opts),
		newGraphCmd(opts),
	)
	return root
}

// load reads the configuration and installs the process logger.
func (o *globalOptions) load() (*config.Config, log.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	logger := log.NewDefaultLogger(level)
	log.SetDefaultLogger(logger)
	return cfg, logger, nil
}
