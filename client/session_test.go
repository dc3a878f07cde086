package client

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gear6io/gpsd4go/gpsdtest"
	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/gear6io/gpsd4go/protocol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func testOptions(addr string) Options {
	opts := DefaultOptions()
	opts.Addr = addr
	opts.ConnectTimeout = time.Second
	opts.IdleTimeout = 0
	opts.ReconnectAttempts = 3
	opts.ReconnectInterval = 10 * time.Millisecond
	return opts
}

// closedAddr returns an address nothing listens on.
func closedAddr(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSessionLifecycle(t *testing.T) {
	srv := gpsdtest.NewServer(t)
	s := NewSession(testOptions(srv.Addr()), NewRegistry(zerolog.Nop()), zerolog.Nop())

	err := s.SendRaw("?VERSION;\n")
	assert.True(t, errors.Is(err, ErrNotRunning), "send before start")
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.Equal(t, StateConnected, s.State())

	err = s.Start(context.Background())
	assert.True(t, errors.Is(err, ErrAlreadyRunning))

	require.NoError(t, s.SendRaw("?VERSION;\n"))
	assert.Eventually(t, func() bool {
		return len(srv.Received()) == 1
	}, waitFor, tick)

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Equal(t, StateStopped, s.State())
	assert.True(t, errors.Is(s.SendCommand(protocol.NewWatch(true, true)), ErrNotRunning), "send after stop")

	// second stop is a no-op
	s.Stop()
	assert.False(t, s.IsRunning())

	assert.Eventually(t, func() bool { return srv.Clients() == 0 }, waitFor, tick)

	// a stopped session can start again
	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return srv.Accepted() == 2 }, waitFor, tick)
	s.Stop()
}

func TestSessionConnectFailure(t *testing.T) {
	opts := testOptions(closedAddr(t))
	opts.ReconnectAttempts = 2

	s := NewSession(opts, NewRegistry(zerolog.Nop()), zerolog.Nop())
	err := s.Start(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnectFailed), "got %v", err)
	assert.True(t, errors.Is(err, RetryAttemptsExhausted))
	assert.False(t, s.IsRunning())
	assert.Equal(t, StateStopped, s.State())

	// stop after a failed start is harmless
	s.Stop()
}

func TestSessionStopWhileConnecting(t *testing.T) {
	opts := testOptions(closedAddr(t))
	opts.ReconnectAttempts = Unbounded

	s := NewSession(opts, NewRegistry(zerolog.Nop()), zerolog.Nop())

	result := make(chan error, 1)
	go func() { result <- s.Start(context.Background()) }()

	assert.Eventually(t, s.IsRunning, waitFor, tick)
	assert.Equal(t, StateConnecting, s.State())

	s.Stop()
	assert.False(t, s.IsRunning())

	select {
	case err := <-result:
		assert.True(t, errors.Is(err, ErrNotRunning), "got %v", err)
	case <-time.After(waitFor):
		t.Fatal("Start did not return after Stop")
	}
}

func TestSessionStartContext(t *testing.T) {
	opts := testOptions(closedAddr(t))
	opts.ReconnectAttempts = Unbounded

	s := NewSession(opts, NewRegistry(zerolog.Nop()), zerolog.Nop())
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := s.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, s.IsRunning(), "session keeps connecting in the background")
}

func TestSessionReconnect(t *testing.T) {
	srv := gpsdtest.NewServer(t)
	registry := NewRegistry(zerolog.Nop())
	s := NewSession(testOptions(srv.Addr()), registry, zerolog.Nop())

	var tpvs atomic.Int32
	registry.Register(protocol.TypeTPV, NewHandler(func(protocol.Message) { tpvs.Add(1) }))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	srv.DropClients()

	assert.Eventually(t, func() bool {
		return srv.Accepted() == 2 && s.State() == StateConnected && srv.Clients() == 1
	}, waitFor, tick)
	assert.Equal(t, int64(1), s.Stats().Reconnects)

	srv.Send(`{"class":"TPV","mode":3}`)
	assert.Eventually(t, func() bool { return tpvs.Load() == 1 }, waitFor, tick)
}

func TestSessionNoReconnect(t *testing.T) {
	srv := gpsdtest.NewServer(t)
	opts := testOptions(srv.Addr())
	opts.ReconnectOnDisconnect = false

	s := NewSession(opts, NewRegistry(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, s.Start(context.Background()))

	srv.DropClients()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, waitFor, tick)
	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, 1, srv.Accepted())
	assert.True(t, errors.Is(s.SendRaw("?POLL;"), ErrNotRunning))

	s.Stop()
}

func TestSessionReconnectBudgetExhausted(t *testing.T) {
	srv := gpsdtest.NewServer(t)
	opts := testOptions(srv.Addr())
	opts.ReconnectAttempts = 1

	s := NewSession(opts, NewRegistry(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, s.Start(context.Background()))

	srv.Close()

	assert.Eventually(t, func() bool { return s.State() == StateStopped }, waitFor, tick)
	s.Stop()
}

func TestSessionIdleTimeout(t *testing.T) {
	srv := gpsdtest.NewServer(t)
	opts := testOptions(srv.Addr())
	opts.IdleTimeout = 50 * time.Millisecond

	s := NewSession(opts, NewRegistry(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return srv.Accepted() >= 2 }, waitFor, tick)
}

func TestSessionHandleData(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	s := NewSession(DefaultOptions(), registry, zerolog.Nop())

	var got []protocol.Message
	registry.Register(protocol.TypeMessage, NewHandler(func(msg protocol.Message) {
		got = append(got, msg)
	}))

	chunk := "not json\r\n" +
		`{"lat":1}` + "\n" +
		`{"class":"TPV","lat":42.5,"lon":27.4}` + "\r\n\r\n" +
		`{"class":"AIS"}` + "\n" +
		`{"class":"SKY","satellites":[]}` + "\r"
	s.handleData([]byte(chunk), &inlineExecutor{})

	require.Len(t, got, 2, "bad lines do not affect later lines")
	assert.Equal(t, protocol.TypeTPV, got[0].Type())
	assert.Equal(t, protocol.TypeSKY, got[1].Type())

	stats := s.Stats()
	assert.Equal(t, int64(5), stats.LinesRead)
	assert.Equal(t, int64(3), stats.DecodeFailures)
	assert.Equal(t, int64(2), stats.MessagesDispatched)
}

func TestSessionPartialLinesAcrossReads(t *testing.T) {
	srv := gpsdtest.NewServer(t)
	registry := NewRegistry(zerolog.Nop())
	opts := testOptions(srv.Addr())
	opts.ReceiveBufferSize = 16

	got := make(chan *protocol.TPV, 4)
	registry.Register(protocol.TypeTPV, HandlerFor(func(tpv *protocol.TPV) { got <- tpv }))

	s := NewSession(opts, registry, zerolog.Nop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	require.True(t, srv.WaitForClients(1, waitFor))

	srv.SendRaw(`{"class":"TPV","mode":2,"la`)
	time.Sleep(20 * time.Millisecond)
	srv.SendRaw(`t":42.5,"lon":27.4}` + "\n")

	select {
	case tpv := <-got:
		assert.Equal(t, 42.5, tpv.Lat)
		assert.Equal(t, 27.4, tpv.Lon)
	case <-time.After(waitFor):
		t.Fatal("TPV not dispatched")
	}
	assert.Zero(t, s.Stats().DecodeFailures)
}
