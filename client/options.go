package client

import (
	"time"

	"github.com/gear6io/gpsd4go/client/config"
)

const (
	DefaultAddr              = "127.0.0.1:2947"
	DefaultConnectTimeout    = 3 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultReconnectInterval = 3 * time.Second
	DefaultReceiveBufferSize = 4096
	DefaultDispatchWorkers   = 4
	DefaultDispatchQueueSize = 256
)

// Options configures a Session.
type Options struct {
	// Addr is the gpsd host:port
	Addr string

	// ConnectTimeout bounds each dial attempt; zero means no timeout
	ConnectTimeout time.Duration

	// IdleTimeout closes the connection when nothing is read for this long;
	// zero disables it
	IdleTimeout time.Duration

	ReconnectOnDisconnect bool

	// ReconnectAttempts is the number of retries after a failed dial.
	// Unbounded retries forever.
	ReconnectAttempts int
	ReconnectInterval time.Duration

	ReceiveBufferSize int
	DispatchWorkers   int
	DispatchQueueSize int
}

// DefaultOptions returns the options a client uses without configuration.
func DefaultOptions() Options {
	return Options{
		Addr:                  DefaultAddr,
		ConnectTimeout:        DefaultConnectTimeout,
		IdleTimeout:           DefaultIdleTimeout,
		ReconnectOnDisconnect: true,
		ReconnectAttempts:     Unbounded,
		ReconnectInterval:     DefaultReconnectInterval,
		ReceiveBufferSize:     DefaultReceiveBufferSize,
		DispatchWorkers:       DefaultDispatchWorkers,
		DispatchQueueSize:     DefaultDispatchQueueSize,
	}
}

// OptionsFromConfig maps the file/env configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:                  cfg.Address(),
		ConnectTimeout:        cfg.Session.ConnectTimeout,
		IdleTimeout:           cfg.Session.IdleTimeout,
		ReconnectOnDisconnect: cfg.Session.Reconnect,
		ReconnectAttempts:     cfg.Session.ReconnectAttempts,
		ReconnectInterval:     cfg.Session.ReconnectInterval,
		ReceiveBufferSize:     cfg.Session.ReceiveBufferSize,
		DispatchWorkers:       cfg.Dispatch.Workers,
		DispatchQueueSize:     cfg.Dispatch.QueueSize,
	}
}

// SetDefaults fills fields whose zero value is unusable.
func (o *Options) SetDefaults() {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.ReceiveBufferSize <= 0 {
		o.ReceiveBufferSize = DefaultReceiveBufferSize
	}
	if o.DispatchWorkers <= 0 {
		o.DispatchWorkers = DefaultDispatchWorkers
	}
	if o.DispatchQueueSize <= 0 {
		o.DispatchQueueSize = DefaultDispatchQueueSize
	}
	if o.ReconnectAttempts < Unbounded {
		o.ReconnectAttempts = Unbounded
	}
}

// dialAttempts converts the retry budget into total dial attempts.
func (o *Options) dialAttempts() int {
	if o.ReconnectAttempts == Unbounded {
		return Unbounded
	}
	return o.ReconnectAttempts + 1
}
