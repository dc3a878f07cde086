package client

import (
	"context"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/gear6io/gpsd4go/protocol"
	"github.com/rs/zerolog"
)

// State is the session lifecycle state
type State int32

const (
	StateStopped State = iota
	StateConnecting
	StateConnected
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// SessionStats are cumulative counters over the session's lifetime
type SessionStats struct {
	State              string    `json:"state"`
	LinesRead          int64     `json:"lines_read"`
	MessagesDispatched int64     `json:"messages_dispatched"`
	DecodeFailures     int64     `json:"decode_failures"`
	BytesDropped       int64     `json:"bytes_dropped"`
	Reconnects         int64     `json:"reconnects"`
	Pool               PoolStats `json:"pool"`
}

// Session owns the connection to gpsd: dialing with a retry budget, reading
// and framing lines, decoding them and handing messages to the registry.
//
// One goroutine per started session does all socket work. Start and Stop are
// serialized by lifecycle; state, conn and the per-run resources are guarded
// by mu, which the send path only read-locks.
type Session struct {
	opts     Options
	registry *Registry
	logger   zerolog.Logger

	lifecycle sync.Mutex

	mu     sync.RWMutex
	state  State
	conn   net.Conn
	cancel context.CancelFunc
	done   chan struct{}
	pool   *WorkerPool

	writeMu sync.Mutex

	linesRead      atomic.Int64
	dispatched     atomic.Int64
	decodeFailures atomic.Int64
	bytesDropped   atomic.Int64
	reconnects     atomic.Int64
}

// NewSession creates a stopped session dispatching into registry.
func NewSession(opts Options, registry *Registry, logger zerolog.Logger) *Session {
	opts.SetDefaults()
	return &Session{
		opts:     opts,
		registry: registry,
		logger:   logger.With().Str("addr", opts.Addr).Logger(),
	}
}

// Start connects to gpsd. It returns once the first connection is up, or with
// a client.connect_failed error once the retry budget is spent and the session
// has stopped again. If ctx ends first Start returns ctx.Err() and the session
// keeps connecting in the background; call Stop to abandon it.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	s.mu.Lock()

	if s.state != StateStopped {
		state := s.state
		s.mu.Unlock()
		s.lifecycle.Unlock()
		return errors.New(ErrAlreadyRunning, "session is already running").
			AddContext("state", state.String())
	}

	pool := NewWorkerPool(s.opts.DispatchWorkers, s.opts.DispatchQueueSize, s.logger)
	if err := pool.Start(); err != nil {
		s.mu.Unlock()
		s.lifecycle.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan error, 1)
	done := make(chan struct{})

	s.state = StateConnecting
	s.cancel = cancel
	s.done = done
	s.pool = pool

	s.mu.Unlock()
	s.lifecycle.Unlock()

	s.logger.Info().Msg("Starting gpsd session")
	go s.run(runCtx, pool, ready, done)

	select {
	case err := <-ready:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the connection and waits until the session goroutine is gone.
// It is safe to call repeatedly, from any goroutine, including a handler.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	switch s.state {
	case StateStopped:
		s.mu.Unlock()
		return
	case StateStopping:
		// the session is stopping itself
		done := s.done
		s.mu.Unlock()
		<-done
		return
	}

	s.state = StateStopping
	cancel, conn, done, pool := s.cancel, s.conn, s.done, s.pool
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping gpsd session")

	cancel()
	if conn != nil {
		_ = conn.Close()
	}
	<-done
	_ = pool.Stop()

	s.release()
	s.logger.Info().Msg("gpsd session stopped")
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsRunning reports whether the session is connecting or connected.
func (s *Session) IsRunning() bool {
	state := s.State()
	return state == StateConnecting || state == StateConnected
}

// SendRaw writes text to gpsd as is.
func (s *Session) SendRaw(text string) error {
	s.mu.RLock()
	state, conn := s.state, s.conn
	s.mu.RUnlock()

	if state != StateConnected || conn == nil {
		return errors.New(ErrNotRunning, "session is not connected").
			AddContext("state", state.String())
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.opts.ConnectTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.opts.ConnectTimeout))
	}
	if _, err := io.WriteString(conn, text); err != nil {
		return errors.Wrap(ErrWriteFailed, err, "failed to write to gpsd")
	}

	s.logger.Debug().Str("command", text).Msg("Wrote command")
	return nil
}

// SendCommand encodes cmd and writes it followed by a newline.
func (s *Session) SendCommand(cmd protocol.Command) error {
	text, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	return s.SendRaw(text + "\n")
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() SessionStats {
	s.mu.RLock()
	state, pool := s.state, s.pool
	s.mu.RUnlock()

	stats := SessionStats{
		State:              state.String(),
		LinesRead:          s.linesRead.Load(),
		MessagesDispatched: s.dispatched.Load(),
		DecodeFailures:     s.decodeFailures.Load(),
		BytesDropped:       s.bytesDropped.Load(),
		Reconnects:         s.reconnects.Load(),
	}
	if pool != nil {
		stats.Pool = pool.GetStats()
	}
	return stats
}

func (s *Session) run(ctx context.Context, pool *WorkerPool, ready chan<- error, done chan struct{}) {
	defer close(done)

	notify := func(err error) {
		select {
		case ready <- err:
		default:
		}
	}

	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				notify(errors.New(ErrNotRunning, "session stopped while connecting"))
				return
			}
			s.logger.Error().Err(err).Msg("Could not connect to gpsd")
			s.shutdown()
			notify(errors.Wrap(ErrConnectFailed, err, "could not connect to gpsd").
				AddContext("addr", s.opts.Addr))
			return
		}

		if !s.connected(conn) {
			_ = conn.Close()
			notify(errors.New(ErrNotRunning, "session stopped while connecting"))
			return
		}
		s.logger.Info().Str("local", conn.LocalAddr().String()).Msg("Connected to gpsd")
		notify(nil)

		s.readLoop(ctx, conn, pool)
		_ = conn.Close()

		if !s.reconnectAfterClose() {
			return
		}
	}
}

func (s *Session) dial(ctx context.Context) (net.Conn, error) {
	var conn net.Conn
	retry := FixedRetryConfig(s.opts.dialAttempts(), s.opts.ReconnectInterval)

	err := RetryWithBackoff(ctx, retry, func(ctx context.Context) error {
		d := net.Dialer{Timeout: s.opts.ConnectTimeout}
		c, err := d.DialContext(ctx, "tcp", s.opts.Addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, s.logger)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// connected publishes conn unless Stop got there first.
func (s *Session) connected(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return false
	}
	s.state = StateConnected
	s.conn = conn
	return true
}

// reconnectAfterClose decides what happens once the connection is gone and
// reports whether the session goroutine should dial again.
func (s *Session) reconnectAfterClose() bool {
	s.mu.Lock()
	s.conn = nil

	if s.state == StateStopping {
		// Stop owns the rest of the teardown
		s.mu.Unlock()
		return false
	}

	if s.opts.ReconnectOnDisconnect {
		s.state = StateConnecting
		s.mu.Unlock()
		s.reconnects.Add(1)
		s.logger.Warn().Msg("Connection to gpsd lost, reconnecting")
		return true
	}

	s.mu.Unlock()
	s.logger.Info().Msg("Connection to gpsd closed")
	s.shutdown()
	return false
}

// shutdown is the stop path taken by the session goroutine itself. It does
// not wait on done since it runs on the goroutine that closes it.
func (s *Session) shutdown() {
	s.mu.Lock()
	if s.state == StateStopping || s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	cancel, pool := s.cancel, s.pool
	s.mu.Unlock()

	cancel()
	_ = pool.Stop()

	s.release()
	s.logger.Info().Msg("gpsd session stopped")
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateStopped
	s.conn = nil
	s.cancel = nil
	s.pool = nil
}

func (s *Session) readLoop(ctx context.Context, conn net.Conn, exec Executor) {
	buf := make([]byte, s.opts.ReceiveBufferSize)
	frames := newFramer(maxPendingBytes)

	for {
		if s.opts.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
		}

		n, err := conn.Read(buf)
		if n > 0 {
			chunk, dropped := frames.push(buf[:n])
			if chunk != nil {
				s.handleData(chunk, exec)
			}
			if dropped > 0 {
				s.bytesDropped.Add(int64(dropped))
				s.logger.Warn().Int("bytes", dropped).Msg("Discarding oversized unterminated line")
			}
		}

		if err != nil {
			s.logReadEnd(ctx, err, frames.buffered())
			return
		}
	}
}

// handleData decodes every line of a line-complete chunk and dispatches the
// results. Undecodable lines are logged and skipped.
func (s *Session) handleData(chunk []byte, exec Executor) {
	for _, line := range splitLines(chunk) {
		s.linesRead.Add(1)

		msg, err := protocol.Decode(line)
		if err != nil {
			s.decodeFailures.Add(1)
			s.logger.Warn().
				Err(err).
				Str("code", errors.GetCode(err)).
				Msg("Skipping undecodable line")
			continue
		}

		s.dispatched.Add(1)
		s.registry.Dispatch(msg, exec)
	}
}

func (s *Session) logReadEnd(ctx context.Context, err error, partial int) {
	switch {
	case ctx.Err() != nil:
		s.logger.Debug().Msg("Read loop cancelled")
	case err == io.EOF:
		s.logger.Info().Int("partial_bytes", partial).Msg("gpsd closed the connection")
	case os.IsTimeout(err):
		s.logger.Warn().Dur("idle_timeout", s.opts.IdleTimeout).Msg("No data from gpsd within idle timeout")
	default:
		s.logger.Warn().Err(err).Msg("Read from gpsd failed")
	}
}
