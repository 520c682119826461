// Command nmosnode is an example driver embedding the facade package (spec
// §1: "the repository still ships a runnable example driver, out of scope
// for the library proper"). It loads a flat, flag/env/TOML-backed Options
// struct the way the teacher's main.go loads its Options, then boots a
// single NMOS node and blocks until signalled.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NVIDIA/nvnmos/internal/config"
)

// Options is the example driver's flat configuration surface, loaded with
// CLI flag > environment variable > TOML file precedence via
// internal/config.LoadConfig.
type Options struct {
	Config string `toml:"-" env:"CONFIG"`

	SeedFile         string `toml:"seed_file" env:"SEED_FILE"`
	SystemGlobalFile string `toml:"system_global_file" env:"SYSTEM_GLOBAL_FILE"`

	Hostname        string   `toml:"node.hostname" env:"HOSTNAME"`
	HostAddresses   []string `toml:"node.host_addresses" env:"HOST_ADDRESSES"`
	Port            int      `toml:"node.port" env:"PORT"`
	Label           string   `toml:"node.label" env:"LABEL"`
	Description     string   `toml:"node.description" env:"DESCRIPTION"`
	Manufacturer    string   `toml:"node.manufacturer" env:"MANUFACTURER"`
	Product         string   `toml:"node.product" env:"PRODUCT"`
	InstanceID      string   `toml:"node.instance_id" env:"INSTANCE_ID"`
	Functions       []string `toml:"node.functions" env:"FUNCTIONS"`
	Seed            string   `toml:"node.seed" env:"SEED"`
	RegistryAddress string   `toml:"node.registry_address" env:"REGISTRY_ADDRESS"`

	LoggingLevel  string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `toml:"logging.format" env:"LOGGING_FORMAT"`
}

func newRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "nmosnode",
		Short: "Run an example AMWA NMOS node",
		Long: "Boots a single NMOS node (IS-04 Node API, IS-05 Connection API, " +
			"IS-04 registry discovery and registration) over the facade package, " +
			"seeded with any senders/receivers named in --seed-file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
			}
			return run(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "config.toml", "Path to TOML configuration file")
	cmd.Flags().StringVar(&opts.SeedFile, "seed-file", "", "Path to a TOML file naming initial sender/receiver SDPs")
	cmd.Flags().StringVar(&opts.SystemGlobalFile, "system-global-file", "", "Path to a drop-in file standing in for the IS-09 system-global resource")
	cmd.Flags().StringVar(&opts.Hostname, "hostname", "", "Fully-qualified node hostname (default: system hostname)")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 8080, "Port NodeAPI listens on")
	cmd.Flags().StringVar(&opts.RegistryAddress, "registry-address", "", "Static IS-04 registry base URL (default: discover via mDNS/DNS-SD)")
	cmd.Flags().StringVar(&opts.LoggingLevel, "logging-level", "info", "Global logging level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.LoggingFormat, "logging-format", "text", "Logging format (text, json)")

	return cmd
}
