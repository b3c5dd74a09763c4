package merger

import (
	"fmt"
	"strconv"

	"github.com/harun/pairmerge/pkg/pairsource"
)

// Pair is one validated (from, to) identifier tuple
type Pair struct {
	From uint64
	To   uint64
}

func (p Pair) String() string {
	return fmt.Sprintf("%d -> %d", p.From, p.To)
}

// Screener validates candidates and remembers accepted pairs for one run
type Screener struct {
	seen map[Pair]struct{}
}

// NewScreener creates an empty screener
func NewScreener() *Screener {
	return &Screener{seen: make(map[Pair]struct{})}
}

// Screen validates c. It returns the pair and an empty reason when c is
// accepted, in which case the pair is recorded as seen. Checks run in order:
// malformed, self-merge, duplicate.
func (s *Screener) Screen(c pairsource.Candidate) (Pair, Reason) {
	from, okFrom := parseID(c.FromID)
	to, okTo := parseID(c.ToID)
	if !okFrom || !okTo {
		return Pair{}, ReasonMalformed
	}

	pair := Pair{From: from, To: to}
	if from == to {
		return pair, ReasonSelfMerge
	}
	if _, dup := s.seen[pair]; dup {
		return pair, ReasonDuplicate
	}

	s.seen[pair] = struct{}{}
	return pair, ""
}

// Seen returns the number of accepted pairs
func (s *Screener) Seen() int {
	return len(s.seen)
}

// parseID accepts only ASCII decimal digits that fit in a uint64
func parseID(raw string) (uint64, bool) {
	if raw == "" {
		return 0, false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, false
		}
	}
	// All digits but above MaxUint64: no Moodle user id (a signed BIGINT) can
	// be this large, so it is classed malformed like any other bad id.
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
