//go:build !windows

package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

const (
	ptyRows = 24
	ptyCols = 200

	// eofChar is VEOF in canonical mode (Ctrl-D)
	eofChar = "\x04"
)

// PTYSession talks to the child through a pseudoterminal master
type PTYSession struct {
	proc   *process
	master *os.File

	mu          sync.Mutex
	terminated  bool
	inputClosed bool
}

func startPTY(spec Spec) (*PTYSession, error) {
	cmd := newCommand(spec)

	// StartWithSize makes the child a session leader with the slave as its
	// controlling terminal and closes our copy of the slave after start.
	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: ptyRows, Cols: ptyCols})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLaunch, cmd.Path, err)
	}

	return &PTYSession{
		proc:   reap(cmd),
		master: master,
	}, nil
}

// Write sends p to the terminal as if typed
func (s *PTYSession) Write(p []byte) (int, error) {
	return s.master.Write(p)
}

// Read reads terminal output. The EIO that Linux reports once the slave side
// is gone is translated to io.EOF.
func (s *PTYSession) Read(p []byte) (int, error) {
	n, err := s.master.Read(p)
	if err != nil && (errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)) {
		return n, io.EOF
	}
	return n, err
}

// SignalTermination delivers SIGINT to the child
func (s *PTYSession) SignalTermination() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return ErrAlreadyTerminated
	}
	s.terminated = true

	if s.proc.exited() {
		return nil
	}
	if err := s.proc.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("send interrupt: %w", err)
	}
	return nil
}

// CloseInput sends the terminal EOF character. The master stays open so
// remaining output can still be read.
func (s *PTYSession) CloseInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputClosed {
		return nil
	}
	s.inputClosed = true

	if s.proc.exited() {
		return nil
	}
	if _, err := io.WriteString(s.master, eofChar); err != nil && !errors.Is(err, syscall.EIO) {
		return fmt.Errorf("send eof: %w", err)
	}
	return nil
}

// WaitExit waits for the child to exit
func (s *PTYSession) WaitExit(timeout time.Duration) error {
	return s.proc.wait(timeout)
}

// Pid returns the child process ID
func (s *PTYSession) Pid() int {
	return s.proc.pid()
}

// Close closes the pty master. A child still attached receives SIGHUP.
func (s *PTYSession) Close() error {
	return s.master.Close()
}
