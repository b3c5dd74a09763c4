//go:build windows

package session

import "fmt"

func startPTY(spec Spec) (Session, error) {
	return nil, fmt.Errorf("%w: pty is not supported on windows", ErrInvalidTransport)
}
