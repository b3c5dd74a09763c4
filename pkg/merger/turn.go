package merger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/pairmerge/pkg/pairsource"
	"github.com/harun/pairmerge/pkg/session"
)

// turnState is the position of a turn in the protocol
type turnState int

const (
	stateAwaitingFromIDAck turnState = iota
	stateAwaitingToIDAck
	stateAwaitingResult
)

func (s turnState) String() string {
	switch s {
	case stateAwaitingFromIDAck:
		return "awaiting-fromid-ack"
	case stateAwaitingToIDAck:
		return "awaiting-toid-ack"
	case stateAwaitingResult:
		return "awaiting-result"
	default:
		return "unknown"
	}
}

// scanFunc inspects the unconsumed output. final is set once the stream has
// ended and no more output will arrive.
type scanFunc func(buf []byte, final bool) (match, bool)

// turn is one request/response exchange for a single pair
type turn struct {
	ctx       context.Context
	deadline  <-chan time.Time
	sess      session.Session
	stream    *outputStream
	markers   *Markers
	logger    zerolog.Logger
	candidate pairsource.Candidate
	pair      Pair
	state     turnState

	// transcript collects the output consumed during this turn
	transcript strings.Builder
}

// play runs the turn to a terminal outcome
func (t *turn) play(inputDelay time.Duration) Outcome {
	// Readiness: the tool asks for a fromid before reading one.
	if t.markers.fromPrompt != nil {
		if _, err := t.await(func(buf []byte, _ bool) (match, bool) {
			return findPrompt(t.markers.fromPrompt, buf)
		}); err != nil {
			return t.fail(err)
		}
	}

	if err := t.send(t.pair.From); err != nil {
		return failed(t.candidate, t.pair, ReasonWriteFailed, err.Error())
	}
	t.state = stateAwaitingFromIDAck
	t.logger.Debug().Uint64("fromid", t.pair.From).Msg("Sent fromid")

	// The toid is held back until the tool has accepted the fromid.
	if t.markers.toPrompt != nil {
		m, err := t.await(func(buf []byte, _ bool) (match, bool) {
			e, okE := t.markers.findError(buf)
			p, okP := findPrompt(t.markers.toPrompt, buf)
			return earliest(e, okE, p, okP)
		})
		if err != nil {
			return t.fail(err)
		}
		if m.kind == matchError {
			return failed(t.candidate, t.pair, ReasonErrorMarker, clean(m.text))
		}
	} else if err := t.sleep(inputDelay); err != nil {
		return t.fail(err)
	}

	if err := t.send(t.pair.To); err != nil {
		return failed(t.candidate, t.pair, ReasonWriteFailed, err.Error())
	}
	t.state = stateAwaitingToIDAck
	t.logger.Debug().Uint64("toid", t.pair.To).Msg("Sent toid")

	// A completed unbuffered write is the acknowledgement for the toid.
	t.state = stateAwaitingResult

	success := successPattern(t.pair)
	m, err := t.await(func(buf []byte, final bool) (match, bool) {
		s, okS := findSuccess(success, buf, final)
		e, okE := t.markers.findError(buf)
		return earliest(s, okS, e, okE)
	})
	if err != nil {
		return t.fail(err)
	}
	if m.kind == matchSuccess {
		return merged(t.candidate, t.pair, m.logID, m.text)
	}
	return failed(t.candidate, t.pair, ReasonErrorMarker, clean(m.text))
}

// await reads until scan matches, consuming the output up to the match
func (t *turn) await(scan scanFunc) (match, error) {
	for {
		if m, ok := scan(t.stream.buf, t.stream.eof); ok {
			t.transcript.WriteString(t.stream.consume(m.end))
			return m, nil
		}
		if t.stream.eof {
			return match{}, errIncomplete
		}
		if err := t.stream.fill(t.ctx, t.deadline); err != nil {
			return match{}, err
		}
	}
}

// send writes one identifier line in a single unbuffered write
func (t *turn) send(id uint64) error {
	if _, err := io.WriteString(t.sess, strconv.FormatUint(id, 10)+"\n"); err != nil {
		return fmt.Errorf("write %d: %w", id, err)
	}
	return nil
}

// sleep is the fixed pause used when the tool has no toid prompt
func (t *turn) sleep(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	case <-t.deadline:
		return errTurnTimeout
	}
}

// fail maps a wait error to its terminal outcome
func (t *turn) fail(err error) Outcome {
	seen := clean(t.transcript.String() + t.stream.pending())

	switch {
	case errors.Is(err, errIncomplete):
		if t.stream.err != nil {
			seen = strings.TrimSpace(seen + " (" + t.stream.err.Error() + ")")
		}
		return failed(t.candidate, t.pair, ReasonIncompleteOutput, seen)
	case errors.Is(err, errTurnTimeout):
		return failed(t.candidate, t.pair, ReasonTurnTimeout, fmt.Sprintf("%s: %s", t.state, seen))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return failed(t.candidate, t.pair, ReasonInterrupted, err.Error())
	default:
		return failed(t.candidate, t.pair, ReasonIncompleteOutput, err.Error())
	}
}

// clean normalises terminal line endings and trims surrounding space
func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r", ""))
}
