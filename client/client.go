// Package client implements a gpsd client: a reconnecting session, a handler
// registry that dispatches by message type and its ancestors, and
// request/response helpers for gpsd commands.
package client

import (
	"context"

	"github.com/gear6io/gpsd4go/client/config"
	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/gear6io/gpsd4go/protocol"
	"github.com/rs/zerolog"
)

// Client represents the main gpsd client
type Client struct {
	session  *Session
	registry *Registry
	logger   zerolog.Logger
}

// New creates a client from validated configuration.
func New(cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWithOptions(OptionsFromConfig(cfg), logger), nil
}

// NewWithOptions creates a client from explicit options.
func NewWithOptions(opts Options, logger zerolog.Logger) *Client {
	registry := NewRegistry(logger)
	return &Client{
		session:  NewSession(opts, registry, logger),
		registry: registry,
		logger:   logger,
	}
}

// Start connects to gpsd, see Session.Start.
func (c *Client) Start(ctx context.Context) error {
	return c.session.Start(ctx)
}

// Stop disconnects and waits for the session to wind down. Idempotent.
func (c *Client) Stop() {
	c.session.Stop()
}

func (c *Client) IsRunning() bool {
	return c.session.IsRunning()
}

func (c *Client) State() State {
	return c.session.State()
}

func (c *Client) Stats() SessionStats {
	return c.session.Stats()
}

// SendRaw writes a raw command such as "?POLL;".
func (c *Client) SendRaw(text string) error {
	return c.session.SendRaw(text)
}

// SendCommand sends cmd as ?TAG=<json>.
func (c *Client) SendCommand(cmd protocol.Command) error {
	return c.session.SendCommand(cmd)
}

// SendCommandWithResponse sends cmd and calls onResponse with the next message
// of the same concrete type. onResponse runs at most once. The handler is
// registered before sending and removed again if the send fails; there is no
// timeout, see Request for one.
func (c *Client) SendCommandWithResponse(cmd protocol.Command, onResponse func(protocol.Message)) error {
	if onResponse == nil {
		return errors.New(ErrInvalidHandler, "response callback cannot be nil")
	}

	h := oneShot(c.registry, onResponse)
	c.registry.Register(cmd.Type(), h)

	if err := c.session.SendCommand(cmd); err != nil {
		c.registry.UnregisterEverywhere(h)
		return err
	}
	return nil
}

// Watch enables or disables watch mode, with JSON reports when reportJSON is set.
func (c *Client) Watch(enable, reportJSON bool) error {
	return c.session.SendCommand(protocol.NewWatch(enable, reportJSON))
}

// WatchWith sends a fully specified WATCH command.
func (c *Client) WatchWith(cmd *protocol.Watch) error {
	return c.session.SendCommand(cmd)
}

// Request sends cmd and waits for the reply of the same type. A gpsd ERROR
// arriving first fails the request with client.command_rejected.
func (c *Client) Request(ctx context.Context, cmd protocol.Command) (protocol.Message, error) {
	return c.await(ctx, cmd.Type(), func() error {
		return c.session.SendCommand(cmd)
	})
}

// Query sends the argument-less ?TAG; form of a command type and waits for
// its reply.
func (c *Client) Query(ctx context.Context, t protocol.Type) (protocol.Message, error) {
	text, err := protocol.Query(t)
	if err != nil {
		return nil, err
	}
	return c.await(ctx, t, func() error {
		return c.session.SendRaw(text + "\n")
	})
}

// Version asks gpsd for its release and protocol version.
func (c *Client) Version(ctx context.Context) (*protocol.Version, error) {
	return queryAs[*protocol.Version](ctx, c)
}

// Devices lists the devices gpsd is reading.
func (c *Client) Devices(ctx context.Context) (*protocol.Devices, error) {
	return queryAs[*protocol.Devices](ctx, c)
}

// Poll returns the latest fix of every active device. gpsd only answers
// POLL while watch mode is enabled.
func (c *Client) Poll(ctx context.Context) (*protocol.Poll, error) {
	return queryAs[*protocol.Poll](ctx, c)
}

func queryAs[T protocol.Command](ctx context.Context, c *Client) (T, error) {
	var zero T
	msg, err := c.Query(ctx, typeOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := msg.(T)
	if !ok {
		return zero, errors.Newf(ErrUnexpectedResponse, "unexpected %s reply", msg.Type())
	}
	return typed, nil
}

func (c *Client) await(ctx context.Context, t protocol.Type, send func() error) (protocol.Message, error) {
	replies := make(chan protocol.Message, 1)
	h := oneShot(c.registry, func(msg protocol.Message) {
		replies <- msg
	})
	c.registry.Register(t, h)
	c.registry.Register(protocol.TypeError, h)

	if err := send(); err != nil {
		c.registry.UnregisterEverywhere(h)
		return nil, err
	}

	select {
	case msg := <-replies:
		if gpsdErr, ok := msg.(*protocol.Error); ok {
			return nil, errors.New(ErrCommandRejected, gpsdErr.Message).
				AddContext("command", t.String())
		}
		return msg, nil
	case <-ctx.Done():
		c.registry.UnregisterEverywhere(h)
		return nil, errors.Wrapf(ErrRequestTimeout, ctx.Err(), "no %s reply", t).
			AddContext("command", t.String())
	}
}

// Register adds h for messages of type t and every type below it.
func (c *Client) Register(t protocol.Type, h *Handler) {
	c.registry.Register(t, h)
}

// RegisterForAll adds h for every message.
func (c *Client) RegisterForAll(h *Handler) {
	c.registry.Register(protocol.TypeMessage, h)
}

// RegisterForReports adds h for every report (TPV, SKY, GST, ATT, TOFF, PPS).
func (c *Client) RegisterForReports(h *Handler) {
	c.registry.Register(protocol.TypeReport, h)
}

// RegisterForErrors adds h for ERROR messages sent by gpsd.
func (c *Client) RegisterForErrors(h *Handler) {
	c.registry.Register(protocol.TypeError, h)
}

// Unregister removes one registration of h under t.
func (c *Client) Unregister(t protocol.Type, h *Handler) bool {
	return c.registry.Unregister(t, h)
}

// UnregisterAll removes h from every type.
func (c *Client) UnregisterAll(h *Handler) bool {
	return c.registry.UnregisterEverywhere(h)
}

// On registers a typed callback for the concrete message type T, for example
// client.On(c, func(tpv *protocol.TPV) { ... }). T must be a pointer to one
// of the protocol message structs. The returned handler can be unregistered.
func On[T protocol.Message](c *Client, fn func(T)) *Handler {
	h := HandlerFor(fn)
	c.registry.Register(typeOf[T](), h)
	return h
}
