// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/invowk/modcat/internal/testutil"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
)

// User is the SSH user name printed in connection info. Any user name is
// accepted; only the token is checked.
const User = "modcat"

type (
	// Handler runs one catalog command line and returns its exit status.
	Handler func(ctx context.Context, args []string, stdout, stderr io.Writer) int

	// Token is an access token issued by the server.
	Token struct {
		Value     TokenValue
		CreatedAt time.Time
		ExpiresAt time.Time
		// Label names the client the token was issued for.
		Label string
	}

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1)
		Host HostAddress
		// Port is the port to listen on (0 = auto-select)
		Port ListenPort
		// TokenTTL is how long tokens are valid (default: 1 hour)
		TokenTTL time.Duration
		// ShutdownTimeout bounds graceful shutdown (default: 10s)
		ShutdownTimeout time.Duration
		// StartupTimeout bounds the wait for the listener (default: 5s)
		StartupTimeout time.Duration
		// HostKeyPath is a PEM host key, created on first use. Empty means an
		// ephemeral key per process.
		HostKeyPath string
		// DefaultCommand runs when a session carries no command (default: list).
		DefaultCommand []string
	}

	// ConnectionInfo contains what a client needs to connect.
	ConnectionInfo struct {
		Host     HostAddress
		Port     int
		Token    TokenValue
		User     string
		ExpireAt time.Time
	}

	// Option configures a Server.
	Option func(*Server)

	// Server serves catalog commands over SSH.
	// A Server instance is single-use: once stopped or failed, create a new instance.
	Server struct {
		cfg     Config
		handler Handler

		state   atomic.Int32
		stateMu sync.Mutex
		lastErr error

		srvMu    sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string

		ctx       context.Context
		cancel    context.CancelFunc
		wg        sync.WaitGroup
		startedCh chan struct{}
		errCh     chan error

		tokens  map[TokenValue]*Token
		tokenMu sync.RWMutex

		logger *log.Logger
		clock  testutil.Clock
	}
)

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		TokenTTL:        time.Hour,
		ShutdownTimeout: 10 * time.Second,
		StartupTimeout:  5 * time.Second,
		DefaultCommand:  []string{"list"},
	}
}

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides the time source used for token expiry.
func WithClock(c testutil.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// New creates a server that dispatches session commands to handler.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config, handler Handler, opts ...Option) *Server {
	defaults := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = defaults.Host
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}
	if len(cfg.DefaultCommand) == 0 {
		cfg.DefaultCommand = defaults.DefaultCommand
	}

	s := &Server{
		cfg:       cfg,
		handler:   handler,
		tokens:    make(map[TokenValue]*Token),
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
		logger:    log.New(io.Discard),
		clock:     testutil.RealClock{},
	}
	s.state.Store(int32(StateCreated))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current server state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Err returns a channel for receiving runtime errors. It is closed on Stop.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// LastError returns the error that caused the Failed state, or nil.
func (s *Server) LastError() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastErr
}

// transitionToStarting moves Created to Starting, failing on a canceled ctx.
func (s *Server) transitionToStarting(ctx context.Context) error {
	select {
	case <-ctx.Done():
		s.transitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return s.LastError()
	default:
	}

	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", s.State())
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return nil
}

func (s *Server) transitionToRunning() {
	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}
}

func (s *Server) transitionToFailed(err error) {
	s.stateMu.Lock()
	s.lastErr = err
	s.stateMu.Unlock()

	s.state.Store(int32(StateFailed))
	if s.cancel != nil {
		s.cancel()
	}
	s.sendError(err)
}

// transitionToStopping reports whether this call owns the shutdown.
func (s *Server) transitionToStopping() bool {
	for {
		current := s.State()
		switch current {
		case StateCreated:
			if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if s.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				if s.cancel != nil {
					s.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

func (s *Server) sendError(err error) {
	select {
	case s.errCh <- err:
	default:
	}
}
