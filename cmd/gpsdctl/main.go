package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gear6io/gpsd4go/client"
	"github.com/gear6io/gpsd4go/client/config"
	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const defaultRequestTimeout = 5 * time.Second

// app carries the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	server     string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		pterm.Error.Println(errors.FormatError(err))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "gpsdctl",
		Short: "Command-line client for the gpsd daemon",
		Long: `gpsdctl talks to a running gpsd over its JSON protocol.

Examples:
  gpsdctl watch
  gpsdctl watch --json --pps
  gpsdctl --server gps.local:2947 version
  gpsdctl send '?POLL;' --wait 2s
  gpsdctl relay --listen :8080`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&a.server, "server", "", "gpsd address host[:port] (default from config, 127.0.0.1:2947)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		createWatchCommand(a),
		createVersionCommand(a),
		createDevicesCommand(a),
		createPollCommand(a),
		createSendCommand(a),
		createRelayCommand(a),
		createConfigCommand(a),
	)
	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.server != "" {
		if err := cfg.SetAddress(a.server); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	logger, err := config.SetupLogger(&cfg.Logging, "gpsdctl")
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// connect creates a client from the loaded config and starts it.
func (a *app) connect(ctx context.Context) (*client.Client, error) {
	c, err := client.New(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		c.Stop()
		return nil, err
	}
	a.logger.Debug().Str("server", a.cfg.Address()).Msg("Connected to gpsd")
	return c, nil
}
