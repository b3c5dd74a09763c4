package session

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Transport selects how the child process is attached
type Transport string

const (
	// TransportPipe attaches the child through plain pipes
	TransportPipe Transport = "pipe"
	// TransportPTY attaches the child to a pseudoterminal
	TransportPTY Transport = "pty"
)

// DefaultSentinel is the line that asks the tool to stop in pipe mode
const DefaultSentinel = "-1"

// Spec describes how to launch the target tool
type Spec struct {
	// Command is the executable of the target tool
	Command string `json:"command"`

	// Args are the command arguments
	Args []string `json:"args"`

	// ElevateWith is prepended to the command line (e.g. ["sudo"])
	ElevateWith []string `json:"elevate_with"`

	// Dir is the working directory
	Dir string `json:"dir"`

	// Env are extra environment variables on top of the inherited ones
	Env map[string]string `json:"env"`

	// Transport selects the pipe or pty backend
	Transport Transport `json:"transport"`

	// Sentinel is written as a line to request termination in pipe mode
	Sentinel string `json:"sentinel"`
}

// Argv returns the full command line including the elevation wrapper
func (s Spec) Argv() []string {
	argv := make([]string, 0, len(s.ElevateWith)+1+len(s.Args))
	argv = append(argv, s.ElevateWith...)
	argv = append(argv, s.Command)
	argv = append(argv, s.Args...)
	return argv
}

// Validate checks the spec before launching
func (s Spec) Validate() error {
	if s.Command == "" {
		return ErrEmptyCommand
	}
	switch s.Transport {
	case TransportPipe, TransportPTY:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTransport, s.Transport)
	}
	return nil
}

// Session is one live child process and its conversation channel.
//
// Write and Read carry raw bytes; writes are unbuffered so every call is
// observed by the child immediately. Read blocks until output is available
// and returns io.EOF once the child has gone away.
type Session interface {
	// Write sends bytes to the child's input
	Write(p []byte) (int, error)

	// Read returns whatever output is available, blocking until some is
	Read(p []byte) (int, error)

	// SignalTermination asks the child to exit in the way the transport requires
	SignalTermination() error

	// CloseInput closes the child's input channel
	CloseInput() error

	// WaitExit waits for the child to exit. A non-positive timeout waits forever.
	// Returns ErrExitTimeout if the child is still running after timeout.
	WaitExit(timeout time.Duration) error

	// Pid returns the child process ID
	Pid() int

	// Close releases the descriptors held by the session
	Close() error
}

// Launcher starts sessions
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// LauncherFunc adapts a function to the Launcher interface
type LauncherFunc func(ctx context.Context) (Session, error)

// Launch calls f(ctx)
func (f LauncherFunc) Launch(ctx context.Context) (Session, error) {
	return f(ctx)
}

// NewLauncher returns a Launcher that opens spec on every call
func NewLauncher(spec Spec) Launcher {
	return LauncherFunc(func(ctx context.Context) (Session, error) {
		return Open(ctx, spec)
	})
}

// Open launches the tool described by spec using its transport.
//
// The context only guards the launch itself. The child is not bound to ctx so
// that cancellation can still be followed by an orderly termination.
func Open(ctx context.Context, spec Spec) (Session, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if spec.Sentinel == "" {
		spec.Sentinel = DefaultSentinel
	}

	var (
		sess Session
		err  error
	)
	switch spec.Transport {
	case TransportPTY:
		sess, err = startPTY(spec)
	default:
		sess, err = startPipe(spec)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// newCommand builds the exec.Cmd shared by both transports
func newCommand(spec Spec) *exec.Cmd {
	argv := spec.Argv()
	cmd := exec.Command(argv[0], argv[1:]...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	cmd.Env = buildEnvironment(spec.Env)
	return cmd
}

// buildEnvironment inherits the parent environment and adds env on top
func buildEnvironment(env map[string]string) []string {
	result := os.Environ()
	for key, value := range env {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}
	return result
}

// process reaps a started command in the background so exits can be awaited
// with a bound.
type process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func reap(cmd *exec.Cmd) *process {
	p := &process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p
}

// wait blocks until exit or timeout. The returned error is the command's exit
// error (e.g. *exec.ExitError) or ErrExitTimeout.
func (p *process) wait(timeout time.Duration) error {
	if timeout <= 0 {
		<-p.done
		return p.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return p.err
	case <-timer.C:
		return fmt.Errorf("%w (pid %d, waited %s)", ErrExitTimeout, p.pid(), timeout)
	}
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *process) pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
