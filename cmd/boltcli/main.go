// Command boltcli is a minimal driver-shaped front end over the Bolt core:
// enough to hand-drive a server during development without a full
// session/transaction API, which is out of scope for this module.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alxayo/boltgo/internal/config"
	"github.com/alxayo/boltgo/internal/logger"
)

var version = "dev"

type rootFlags struct {
	uri        string
	user       string
	password   string
	encrypted  bool
	trust      string
	configPath string
	logLevel   string
}

func main() {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     "boltcli",
		Short:   "Minimal command-line client for the Bolt core",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init()
			if err := logger.SetLevel(flags.logLevel); err != nil {
				return err
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.uri, "uri", "127.0.0.1:7687", "server address (host:port)")
	pf.StringVar(&flags.user, "user", "neo4j", "basic auth principal")
	pf.StringVar(&flags.password, "password", "", "basic auth credentials")
	pf.BoolVar(&flags.encrypted, "encrypted", false, "wrap the socket in TLS")
	pf.StringVar(&flags.trust, "trust", string(config.TrustDefault), "default|on-first-use")
	pf.StringVar(&flags.configPath, "config", "", "optional YAML config file overriding the flags above")
	pf.StringVar(&flags.logLevel, "log-level", "info", "debug|info|warn|error")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newPingCommand(flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig builds the Config from the persistent flags or, when
// --config is given, from that YAML file alone: config.Load seeds
// config.Default() and unmarshals the file over it, and the --user,
// --password, --encrypted and --trust flags are not applied.
func resolveConfig(flags *rootFlags) (*config.Config, error) {
	if flags.configPath != "" {
		return config.Load(flags.configPath)
	}
	cfg := config.Default()
	cfg.Encrypted = flags.encrypted
	cfg.Trust = config.Trust(flags.trust)
	cfg.Auth = config.Auth{Scheme: "basic", Principal: flags.user, Credentials: flags.password}
	return cfg, nil
}
