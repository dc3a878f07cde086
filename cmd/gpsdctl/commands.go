package main

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gear6io/gpsd4go/client"
	"github.com/gear6io/gpsd4go/pkg/units"
	"github.com/gear6io/gpsd4go/protocol"
	"github.com/gear6io/gpsd4go/relay"
	"github.com/spf13/cobra"
)

func createWatchCommand(a *app) *cobra.Command {
	var (
		rawJSON   bool
		scaled    bool
		pps       bool
		device    string
		speedUnit string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream reports until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := units.ParseSpeedUnit(speedUnit)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Stop()

			out := newPrinter(cmd.OutOrStdout(), unit)
			if rawJSON {
				c.RegisterForAll(client.NewHandler(out.raw))
			} else {
				client.On(c, out.tpv)
				client.On(c, out.sky)
				client.On(c, out.pps)
				c.RegisterForErrors(client.NewHandler(out.gpsdError))
			}

			watch := &protocol.Watch{Enable: true, JSON: true, Scaled: scaled, PPS: pps, Device: device}
			if err := c.WatchWith(watch); err != nil {
				return err
			}

			<-ctx.Done()
			if c.IsRunning() {
				_ = c.Watch(false, false)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rawJSON, "json", false, "print every message as JSON")
	cmd.Flags().BoolVar(&scaled, "scaled", false, "ask gpsd to apply scaling to output")
	cmd.Flags().BoolVar(&pps, "pps", false, "include PPS reports")
	cmd.Flags().StringVar(&device, "device", "", "only watch this device path")
	cmd.Flags().StringVar(&speedUnit, "speed-unit", string(units.KilometersPerHour), "speed unit (km/h, mph, kn, ft/min, m/s)")
	return cmd
}

func createVersionCommand(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the gpsd release and protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.request(cmd.Context(), timeout, func(ctx context.Context, c *client.Client) error {
				version, err := c.Version(ctx)
				if err != nil {
					return err
				}
				return renderVersion(version)
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultRequestTimeout, "reply timeout")
	return cmd
}

func createDevicesCommand(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices gpsd is reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.request(cmd.Context(), timeout, func(ctx context.Context, c *client.Client) error {
				devices, err := c.Devices(ctx)
				if err != nil {
					return err
				}
				return renderDevices(devices)
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultRequestTimeout, "reply timeout")
	return cmd
}

func createPollCommand(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Show the latest fix of every active device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.request(cmd.Context(), timeout, func(ctx context.Context, c *client.Client) error {
				// gpsd ignores ?POLL; unless the connection is watching
				if _, err := c.Request(ctx, protocol.NewWatch(true, true)); err != nil {
					return err
				}
				poll, err := c.Poll(ctx)
				if err != nil {
					return err
				}
				return renderPoll(poll)
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultRequestTimeout, "reply timeout")
	return cmd
}

func createSendCommand(a *app) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "send [raw command]",
		Short: "Send a raw command and print what gpsd answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Stop()

			out := newPrinter(cmd.OutOrStdout(), units.MetersPerSecond)
			c.RegisterForAll(client.NewHandler(out.raw))

			text := args[0]
			if !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			if err := c.SendRaw(text); err != nil {
				return err
			}

			select {
			case <-time.After(wait):
			case <-ctx.Done():
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", time.Second, "how long to print replies")
	return cmd
}

func createRelayCommand(a *app) *cobra.Command {
	var listen, path string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay gpsd messages to WebSocket clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Relay.Listen
			}
			if path == "" {
				path = a.cfg.Relay.Path
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Stop()

			hub := relay.NewHub(a.logger)
			defer hub.Close()
			if err := hub.Attach(c); err != nil {
				return err
			}
			if err := c.Watch(true, true); err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle(path, hub)
			srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				hub.Close()
				_ = srv.Shutdown(shutdownCtx)
			}()

			a.logger.Info().Str("listen", listen).Str("path", path).Msg("Relay listening")
			err = srv.ListenAndServe()
			if err == http.ErrServerClosed {
				err = nil
			}
			wg.Wait()
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config, :8080)")
	cmd.Flags().StringVar(&path, "path", "", "WebSocket path (default from config, /ws)")
	return cmd
}

func createConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return renderConfig(a.cfg)
			},
		},
		&cobra.Command{
			Use:   "init [path]",
			Short: "Write the effective configuration to a yaml or toml file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfg.Save(args[0]); err != nil {
					return err
				}
				a.logger.Info().Str("path", args[0]).Msg("Configuration written")
				return nil
			},
		},
	)
	return cmd
}

// request connects, runs fn under a timeout and disconnects.
func (a *app) request(ctx context.Context, timeout time.Duration, fn func(context.Context, *client.Client) error) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx, c)
}
