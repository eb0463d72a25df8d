package executor

import (
	"bytes"
	"os/exec"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a module to inject using fx.
var Module = fx.Options(
	fx.Provide(func(logger *zap.SugaredLogger) Executor {
		return NewExecutor(WithLogger(logger))
	}),
)

// Executor wraps the execution of "os/exec".Cmd's to allow adding logs/metrics to
// each exec and makes it easier to test.
type Executor interface {

	// Start - logs and starts the Cmd without waiting for it to complete.
	// The caller owns the process handle afterwards.
	Start(cmd *exec.Cmd, env []string) error
	// Run - logs and executes the Cmd to completion, returning its output.
	Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error)
}

// executorImpl implements Executor
type executorImpl struct {
	Logger *zap.SugaredLogger
	// StartFunc may be overridden to use executorImpl in tests.
	StartFunc func(e *exec.Cmd) error
	// RunFunc may be overridden to use executorImpl in tests.
	RunFunc func(e *exec.Cmd) error
}

// Option defines options to customize executorImpl's behavior
type Option func(*executorImpl)

// WithLogger overrides the default noop logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(executor *executorImpl) {
		executor.Logger = logger
	}
}

// WithStartFunc provides customized start behavior for executorImpl
func WithStartFunc(startFunc func(e *exec.Cmd) error) Option {
	return func(executor *executorImpl) {
		executor.StartFunc = startFunc
	}
}

// WithRunFunc provides customized run behavior for executorImpl
func WithRunFunc(runFunc func(e *exec.Cmd) error) Option {
	return func(executor *executorImpl) {
		executor.RunFunc = runFunc
	}
}

// NewExecutor - creates a new executorImpl with a noop logger and default exec functions.
func NewExecutor(opts ...Option) Executor {
	executor := &executorImpl{
		Logger:    zap.NewNop().Sugar(),
		StartFunc: func(cmd *exec.Cmd) error { return cmd.Start() },
		RunFunc:   func(cmd *exec.Cmd) error { return cmd.Run() },
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// Start - logs the Path/Args and starts the command via StartFunc.
func (l *executorImpl) Start(cmd *exec.Cmd, env []string) error {
	l.logCommand(cmd)

	if l.StartFunc == nil {
		l.Logger.Warn("missing StartFunc - skipped execution")
		return nil
	}

	cmd.Env = env
	return l.StartFunc(cmd)
}

// Run - logs the Path/Args and executes the command to completion via RunFunc.
func (l *executorImpl) Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error) {
	l.logCommand(cmd)

	if l.RunFunc == nil {
		l.Logger.Warn("missing RunFunc - skipped execution")
		return "", "", 0, nil
	}

	var stdoutB, stderrB bytes.Buffer
	cmd.Stdout = &stdoutB
	cmd.Stderr = &stderrB
	err = l.RunFunc(cmd)

	exitCode = -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	return stdoutB.String(), stderrB.String(), exitCode, err
}

// Logs the command specified: Path, Dir, Args
func (l *executorImpl) logCommand(cmd *exec.Cmd) {
	l.Logger.Infow("Exec",
		"Path", cmd.Path,
		"Dir", cmd.Dir,
		"Args", cmd.Args[1:], // First arg is always the command itself
	)
}
