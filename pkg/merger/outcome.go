package merger

import (
	"fmt"
	"time"

	"github.com/harun/pairmerge/pkg/pairsource"
)

// Status classifies the result of one candidate
type Status string

const (
	StatusMerged  Status = "merged"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Reason explains a skipped or failed candidate
type Reason string

const (
	// Skip reasons
	ReasonMalformed Reason = "malformed"
	ReasonSelfMerge Reason = "self-merge"
	ReasonDuplicate Reason = "duplicate"

	// Failure reasons
	ReasonErrorMarker      Reason = "error-marker"
	ReasonIncompleteOutput Reason = "incomplete-output"
	ReasonTurnTimeout      Reason = "turn-timeout"
	ReasonWriteFailed      Reason = "write-failed"
	ReasonSessionClosed    Reason = "session-closed"
	ReasonInterrupted      Reason = "interrupted"
)

// Outcome is the classified result of one candidate
type Outcome struct {
	Candidate pairsource.Candidate
	Pair      Pair
	Status    Status
	Reason    Reason

	// LogID is the tool's merge log id when Status is merged
	LogID uint64

	// Detail is the raw output line for merges, or the tool output or error
	// text for failures
	Detail string

	Duration time.Duration
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusMerged:
		return fmt.Sprintf("Merged(%d)", o.LogID)
	case StatusFailed:
		return fmt.Sprintf("Failed(%s)", o.Reason)
	default:
		return fmt.Sprintf("Skipped(%s)", o.Reason)
	}
}

func merged(c pairsource.Candidate, p Pair, logID uint64, line string) Outcome {
	return Outcome{Candidate: c, Pair: p, Status: StatusMerged, LogID: logID, Detail: line}
}

func failed(c pairsource.Candidate, p Pair, reason Reason, detail string) Outcome {
	return Outcome{Candidate: c, Pair: p, Status: StatusFailed, Reason: reason, Detail: detail}
}

func skipped(c pairsource.Candidate, p Pair, reason Reason) Outcome {
	return Outcome{Candidate: c, Pair: p, Status: StatusSkipped, Reason: reason}
}

// Summary counts the outcomes of one run
type Summary struct {
	Accepted    int
	Merged      int
	Failed      int
	Skipped     int
	Interrupted bool
	Duration    time.Duration
}

func (s *Summary) record(o Outcome) {
	switch o.Status {
	case StatusMerged:
		s.Accepted++
		s.Merged++
	case StatusFailed:
		s.Accepted++
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	}
}
