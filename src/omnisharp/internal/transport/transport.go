// Package transport implements the framed stdio protocol used to talk to an
// external analysis server process, plus lifecycle control over that process.
package transport

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/clock"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/errors"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/executor"
	"go.uber.org/atomic"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_configKeyServer = "server"

	// Environment flag selecting the server's stdio protocol mode.
	_envStdioMode = "OMNISHARP_STDIO=1"

	// Substrings scanned for on the merged output stream during startup.
	_readyMarker     = "Started"
	_errorMarker     = "error"
	_exceptionMarker = "exception"

	_defaultConnectTimeout = 10 * time.Second
	_defaultReadTimeout    = 30 * time.Second
	_defaultPollInterval   = 100 * time.Millisecond

	// Upper bound on waiting for the killed process to exit during Disconnect.
	_exitWait = 5 * time.Second
)

// Module is the Fx module for this package.
var Module = fx.Provide(NewFactory)

// Transport provides framed request/response exchange with one external
// analysis server process.
type Transport interface {
	// Connect spawns the server at serverPath with the given working directory
	// and blocks until it reports readiness on its merged output stream.
	// An already-connected transport is disconnected first.
	Connect(ctx context.Context, serverPath string, workingDir string) error
	// Disconnect tears down streams and the process. Idempotent; the
	// transport is reusable afterwards.
	Disconnect() error
	// Send writes raw message bytes and flushes immediately.
	Send(msg string) error
	// Receive reads one framed message, or a raw unframed line when no
	// Content-Length header appears where one was expected.
	Receive() (string, error)
	// IsConnected re-validates the process handle, both streams and process liveness.
	IsConnected() bool
	// IsReconnectable reports whether a fresh Connect after Disconnect is a
	// valid recovery path. Always true for stdio transports.
	IsReconnectable() bool
	// ReadTimeout is the advisory budget for callers layering
	// request/response correlation on top of Receive.
	ReadTimeout() time.Duration
	// ProcessID returns the spawned server's pid, or 0 when not connected.
	ProcessID() int
}

// Factory creates transports bound to shared dependencies.
type Factory func() Transport

// Config carries the transport timeouts.
type Config struct {
	ConnectTimeoutMs int `yaml:"connectTimeoutMs"`
	ReadTimeoutMs    int `yaml:"readTimeoutMs"`
	PollIntervalMs   int `yaml:"pollIntervalMs"`
}

// Params are inbound parameters to construct a transport factory.
type Params struct {
	fx.In

	Config   config.Provider
	Logger   *zap.SugaredLogger
	Executor executor.Executor
	Clock    clock.Clock
}

// NewFactory returns a Factory producing stdio transports configured from the
// server config block.
func NewFactory(p Params) (Factory, error) {
	var cfg Config
	if err := p.Config.Get(_configKeyServer).Populate(&cfg); err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogger(p.Logger),
		WithExecutor(p.Executor),
		WithClock(p.Clock),
	}
	if cfg.ConnectTimeoutMs > 0 {
		opts = append(opts, WithConnectTimeout(time.Duration(cfg.ConnectTimeoutMs)*time.Millisecond))
	}
	if cfg.ReadTimeoutMs > 0 {
		opts = append(opts, WithReadTimeout(time.Duration(cfg.ReadTimeoutMs)*time.Millisecond))
	}
	if cfg.PollIntervalMs > 0 {
		opts = append(opts, WithPollInterval(time.Duration(cfg.PollIntervalMs)*time.Millisecond))
	}

	return func() Transport {
		return NewStdio(opts...)
	}, nil
}

// Option defines options to customize the stdio transport.
type Option func(*stdioTransport)

// WithLogger overrides the default noop logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(t *stdioTransport) { t.logger = logger }
}

// WithExecutor overrides the process executor.
func WithExecutor(e executor.Executor) Option {
	return func(t *stdioTransport) { t.executor = e }
}

// WithClock overrides the clock used for readiness polling.
func WithClock(c clock.Clock) Option {
	return func(t *stdioTransport) { t.clock = c }
}

// WithConnectTimeout bounds the readiness wait in Connect.
func WithConnectTimeout(d time.Duration) Option {
	return func(t *stdioTransport) { t.connectTimeout = d }
}

// WithReadTimeout sets the advisory request/response budget.
func WithReadTimeout(d time.Duration) Option {
	return func(t *stdioTransport) { t.readTimeout = d }
}

// WithPollInterval sets the sleep between readiness polls.
func WithPollInterval(d time.Duration) Option {
	return func(t *stdioTransport) { t.pollInterval = d }
}

type stdioTransport struct {
	logger   *zap.SugaredLogger
	executor executor.Executor
	clock    clock.Clock

	connectTimeout time.Duration
	readTimeout    time.Duration
	pollInterval   time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	writer *bufio.Writer
	reader *bufio.Reader
	exited *atomic.Bool
}

// NewStdio creates a disconnected stdio transport.
func NewStdio(opts ...Option) Transport {
	t := &stdioTransport{
		logger:         zap.NewNop().Sugar(),
		executor:       executor.NewExecutor(),
		clock:          clock.New(),
		connectTimeout: _defaultConnectTimeout,
		readTimeout:    _defaultReadTimeout,
		pollInterval:   _defaultPollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *stdioTransport) Connect(ctx context.Context, serverPath string, workingDir string) error {
	// A reconnect always starts from a clean slate.
	if err := t.Disconnect(); err != nil {
		return err
	}

	cmd := exec.Command(serverPath)
	cmd.Dir = workingDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.ConnectionError{ServerPath: serverPath, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.ConnectionError{ServerPath: serverPath, Err: err}
	}
	// Merge stderr into the stdout pipe so startup errors appear on the
	// stream the readiness wait is scanning.
	cmd.Stderr = cmd.Stdout

	if err := t.executor.Start(cmd, append(os.Environ(), _envStdioMode)); err != nil {
		t.closeStreams(stdin, stdout)
		return &errors.ConnectionError{ServerPath: serverPath, Err: err}
	}

	exited := atomic.NewBool(false)
	go func() {
		cmd.Wait()
		exited.Store(true)
	}()

	reader := bufio.NewReader(stdout)

	t.mu.Lock()
	t.cmd = cmd
	t.stdin = stdin
	t.stdout = stdout
	t.writer = bufio.NewWriter(stdin)
	t.reader = reader
	t.exited = exited
	t.mu.Unlock()

	if err := t.awaitReady(ctx, reader); err != nil {
		t.Disconnect()
		return err
	}

	t.logger.Infow("analysis server ready", "path", serverPath, "pid", cmd.Process.Pid)
	return nil
}

// awaitReady polls the merged output stream for a readiness or failure marker
// until the connect timeout elapses. Short sleeps between polls avoid
// busy-spinning while no data is available. The scanner goroutine holds its
// own reader reference: Disconnect on the timeout path nils the shared field,
// and the goroutine must instead exit via the read error when the stream
// closes underneath it.
func (t *stdioTransport) awaitReady(ctx context.Context, reader *bufio.Reader) error {
	ready := make(chan error, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				ready <- &errors.StartupError{Line: "output stream closed before readiness"}
				return
			}
			line = strings.TrimSpace(line)
			lower := strings.ToLower(line)
			// Failure markers outrank the ready marker: a line carrying both
			// is a failure report, not a readiness signal.
			switch {
			case strings.Contains(lower, _errorMarker), strings.Contains(lower, _exceptionMarker):
				ready <- &errors.StartupError{Line: line}
				return
			case strings.Contains(line, _readyMarker):
				ready <- nil
				return
			}
		}
	}()

	deadline := t.clock.Now().Add(t.connectTimeout)
	for {
		select {
		case err := <-ready:
			return err
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if t.clock.Now().After(deadline) {
			return &errors.TimeoutError{Op: "connect", Timeout: t.connectTimeout}
		}
		t.clock.Sleep(t.pollInterval)
	}
}

func (t *stdioTransport) Disconnect() error {
	t.mu.Lock()
	cmd, stdin, stdout, exited := t.cmd, t.stdin, t.stdout, t.exited
	t.cmd, t.stdin, t.stdout, t.writer, t.reader, t.exited = nil, nil, nil, nil, nil, nil
	t.mu.Unlock()

	if cmd == nil && stdin == nil && stdout == nil {
		return nil
	}

	// Best-effort stream teardown; close errors are swallowed.
	t.closeStreams(stdin, stdout)

	if cmd != nil && cmd.Process != nil && exited != nil && !exited.Load() {
		cmd.Process.Kill()
		waitUntil := t.clock.Now().Add(_exitWait)
		for !exited.Load() && t.clock.Now().Before(waitUntil) {
			t.clock.Sleep(t.pollInterval)
		}
		if !exited.Load() {
			t.logger.Warnw("analysis server did not exit after kill", "pid", cmd.Process.Pid)
		}
	}

	return nil
}

func (t *stdioTransport) closeStreams(stdin io.WriteCloser, stdout io.ReadCloser) {
	var err error
	if stdin != nil {
		err = multierr.Append(err, stdin.Close())
	}
	if stdout != nil {
		err = multierr.Append(err, stdout.Close())
	}
	if err != nil {
		t.logger.Debugw("closing transport streams", "error", err)
	}
}

func (t *stdioTransport) Send(msg string) error {
	t.mu.Lock()
	writer := t.writer
	connected := t.connectedLocked()
	t.mu.Unlock()

	if !connected {
		return &errors.NotConnectedError{Op: "send"}
	}
	if _, err := writer.WriteString(msg); err != nil {
		return err
	}
	return writer.Flush()
}

func (t *stdioTransport) Receive() (string, error) {
	t.mu.Lock()
	reader := t.reader
	connected := t.connectedLocked()
	t.mu.Unlock()

	if !connected {
		return "", &errors.NotConnectedError{Op: "receive"}
	}
	return ReadFrame(reader)
}

func (t *stdioTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectedLocked()
}

func (t *stdioTransport) connectedLocked() bool {
	return t.cmd != nil && t.stdin != nil && t.stdout != nil && t.exited != nil && !t.exited.Load()
}

func (t *stdioTransport) IsReconnectable() bool {
	return true
}

func (t *stdioTransport) ReadTimeout() time.Duration {
	return t.readTimeout
}

func (t *stdioTransport) ProcessID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd == nil || t.cmd.Process == nil {
		return 0
	}
	return t.cmd.Process.Pid
}
