// Package cli wires configuration, storage and the HTTP server into the
// inventory-service command line.
package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fairyhunter13/inventory-service/internal/config"
	"github.com/fairyhunter13/inventory-service/internal/obs"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Storage    string
	LogLevel   string
}

// NewRootCommand creates the root command. Without a subcommand it serves
// HTTP, like "serve".
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	serve := NewServeCommand(opts)

	cmd := &cobra.Command{
		Use:           "inventory-service",
		Short:         "Inventory service with product CRUD and an activity log",
		Long:          "Tracks products and records every create, update and delete in an activity log, on relational or document storage.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Storage, "storage", "", "storage driver (sqlite|postgres|document)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// loadConfig resolves configuration: defaults, then the config file, then
// the environment, then any flags set on the command line.
func loadConfig(opts *RootOptions, flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.LoadFile(opts.ConfigFile)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Storage != "" {
		cfg.StorageDriver = strings.ToLower(opts.Storage)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.HTTPAddr = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	obs.InitLogger(cfg.LogLevel)
	return cfg, nil
}
