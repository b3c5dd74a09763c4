package merger

import (
	"context"
	"io"
	"sync"
	"time"
)

const (
	readChunkSize = 4096

	// maxBuffered bounds the unconsumed output; the oldest bytes are dropped
	maxBuffered = 64 * 1024
)

type chunk struct {
	data []byte
	err  error
}

// outputStream accumulates session output. A single pump goroutine performs
// the blocking reads; everything else runs on the driver's goroutine.
type outputStream struct {
	chunks <-chan chunk
	done   chan struct{}
	once   sync.Once

	buf []byte
	eof bool
	err error // read error other than io.EOF
}

func newOutputStream(r io.Reader) *outputStream {
	chunks := make(chan chunk, 16)
	s := &outputStream{
		chunks: chunks,
		done:   make(chan struct{}),
	}
	go s.pump(r, chunks)
	return s
}

func (s *outputStream) pump(r io.Reader, out chan<- chunk) {
	defer close(out)

	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case out <- chunk{data: data}:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				select {
				case out <- chunk{err: err}:
				case <-s.done:
				}
			}
			return
		}
	}
}

// fill blocks for the next chunk of output. It returns ctx.Err() on
// cancellation and errTurnTimeout when deadline fires. End of stream is
// recorded in s.eof rather than returned.
func (s *outputStream) fill(ctx context.Context, deadline <-chan time.Time) error {
	if s.eof {
		return nil
	}

	select {
	case c, ok := <-s.chunks:
		if !ok {
			s.eof = true
			return nil
		}
		if c.err != nil {
			s.err = c.err
			s.eof = true
			return nil
		}
		s.buf = append(s.buf, c.data...)
		if over := len(s.buf) - maxBuffered; over > 0 {
			s.buf = append(s.buf[:0], s.buf[over:]...)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline:
		return errTurnTimeout
	}
}

// consume drops the first n bytes and returns them as text
func (s *outputStream) consume(n int) string {
	text := string(s.buf[:n])
	s.buf = append(s.buf[:0], s.buf[n:]...)
	return text
}

// pending returns the unconsumed output as text
func (s *outputStream) pending() string {
	return string(s.buf)
}

// close stops the pump. Reads already in flight finish when the session's
// reader is closed.
func (s *outputStream) close() {
	s.once.Do(func() { close(s.done) })
}
