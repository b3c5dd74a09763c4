package session

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// PipeSession talks to the child over plain pipes
type PipeSession struct {
	proc     *process
	stdin    *os.File
	output   *os.File
	sentinel string

	mu          sync.Mutex
	terminated  bool
	inputClosed bool
}

func startPipe(spec Spec) (*PipeSession, error) {
	cmd := newCommand(spec)

	// Both pipes are created here rather than with cmd.StdinPipe so that
	// cmd.Wait never closes our ends. The child holds the only other ends
	// after start, so the output read end sees EOF as soon as the child exits.
	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %w", ErrLaunch, err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		_ = inR.Close()
		_ = inW.Close()
		return nil, fmt.Errorf("%w: output pipe: %w", ErrLaunch, err)
	}
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = outW

	if err := cmd.Start(); err != nil {
		_ = inR.Close()
		_ = inW.Close()
		_ = outR.Close()
		_ = outW.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrLaunch, cmd.Path, err)
	}
	_ = inR.Close()
	_ = outW.Close()

	return &PipeSession{
		proc:     reap(cmd),
		stdin:    inW,
		output:   outR,
		sentinel: spec.Sentinel,
	}, nil
}

// Write sends p to the child's stdin
func (s *PipeSession) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

// Read reads combined stdout/stderr output
func (s *PipeSession) Read(p []byte) (int, error) {
	return s.output.Read(p)
}

// SignalTermination writes the sentinel line
func (s *PipeSession) SignalTermination() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return ErrAlreadyTerminated
	}
	s.terminated = true

	if s.inputClosed {
		return fmt.Errorf("send sentinel: %w", os.ErrClosed)
	}
	if _, err := io.WriteString(s.stdin, s.sentinel+"\n"); err != nil {
		return fmt.Errorf("send sentinel: %w", err)
	}
	return nil
}

// CloseInput closes the child's stdin
func (s *PipeSession) CloseInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputClosed {
		return nil
	}
	s.inputClosed = true
	return s.stdin.Close()
}

// WaitExit waits for the child to exit
func (s *PipeSession) WaitExit(timeout time.Duration) error {
	return s.proc.wait(timeout)
}

// Pid returns the child process ID
func (s *PipeSession) Pid() int {
	return s.proc.pid()
}

// Close releases the output pipe. The child is not killed.
func (s *PipeSession) Close() error {
	_ = s.CloseInput()
	return s.output.Close()
}
