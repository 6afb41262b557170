// pqbench benchmarks Parquet-to-CSV conversion across several Parquet
// engines.
//
// The extract command samples public taxi-trip data into Parquet files of
// fixed row counts. The run command times every adapter on every sample and
// writes a results CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xtxerr/pqbench/internal/config"
	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

const defaultConfigPath = "pqbench.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "pqbench",
		Short: "Parquet to CSV conversion benchmark",
		Long: `pqbench measures how long different Parquet engines take to convert
Parquet files of increasing size to CSV.

Run 'pqbench extract' once to build the sample files, then 'pqbench run'
to time the adapters and write the results CSV.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath,
		"Config file path (defaults apply when the default file is absent)")
	flags.StringVar(&opts.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&opts.logFormat, "log-format", "",
		"Log format: auto, text, json (overrides config)")

	root.AddCommand(newExtractCmd(opts))
	root.AddCommand(newRunCmd(opts))

	return root
}

// load reads the config file and configures logging. A missing config file
// is only an error when --config was given explicitly.
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		if !errors.IsNotFound(err) || cmd.Flag("config").Changed {
			return err
		}
		if cfg, err = config.Parse(nil); err != nil {
			return err
		}
	}

	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}

	o.cfg = cfg
	return nil
}
