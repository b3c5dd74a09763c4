package merger

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

// matchKind identifies what was found in the output
type matchKind int

const (
	matchPrompt matchKind = iota + 1
	matchSuccess
	matchError
)

// match is a located marker. end is the offset just past the consumed output.
type match struct {
	kind  matchKind
	start int
	end   int
	text  string
	logID uint64
}

// Markers holds the compiled output cues of the tool
type Markers struct {
	fromPrompt *regexp.Regexp
	toPrompt   *regexp.Regexp
	errors     []*regexp.Regexp
}

// NewMarkers compiles the prompt and error patterns. Empty prompt patterns
// disable the corresponding wait.
func NewMarkers(fromPrompt, toPrompt string, errorMarkers []string) (*Markers, error) {
	m := &Markers{}

	var err error
	if fromPrompt != "" {
		if m.fromPrompt, err = regexp.Compile(fromPrompt); err != nil {
			return nil, fmt.Errorf("from prompt: %w", err)
		}
	}
	if toPrompt != "" {
		if m.toPrompt, err = regexp.Compile(toPrompt); err != nil {
			return nil, fmt.Errorf("to prompt: %w", err)
		}
	}
	if len(errorMarkers) == 0 {
		return nil, ErrNoErrorMarkers
	}
	for _, pattern := range errorMarkers {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("error marker %q: %w", pattern, err)
		}
		m.errors = append(m.errors, re)
	}

	return m, nil
}

// successPattern matches the tool's result line for exactly this pair
func successPattern(p Pair) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`From %d to %d: Success; Log id: (\d+)`, p.From, p.To))
}

// SuccessLine renders the result line the tool prints for a merged pair
func SuccessLine(p Pair, logID uint64) string {
	return fmt.Sprintf("From %d to %d: Success; Log id: %d", p.From, p.To, logID)
}

// findPrompt locates re in buf and consumes through it
func findPrompt(re *regexp.Regexp, buf []byte) (match, bool) {
	loc := re.FindIndex(buf)
	if loc == nil {
		return match{}, false
	}
	return match{kind: matchPrompt, start: loc[0], end: loc[1], text: string(buf[loc[0]:loc[1]])}, true
}

// findError locates the earliest error marker and consumes through the end
// of its line
func (m *Markers) findError(buf []byte) (match, bool) {
	best := match{start: -1}
	for _, re := range m.errors {
		loc := re.FindIndex(buf)
		if loc == nil {
			continue
		}
		if best.start < 0 || loc[0] < best.start {
			best = match{kind: matchError, start: loc[0], end: loc[1]}
		}
	}
	if best.start < 0 {
		return match{}, false
	}

	best.end = lineEnd(buf, best.end)
	best.text = string(buf[:best.end])
	return best, true
}

// findSuccess locates the pair's success line. Unless final is set, a log id
// that runs to the end of buf may still be growing and is not reported yet.
func findSuccess(re *regexp.Regexp, buf []byte, final bool) (match, bool) {
	loc := re.FindSubmatchIndex(buf)
	if loc == nil {
		return match{}, false
	}
	if loc[3] == len(buf) && !final {
		return match{}, false
	}
	logID, err := strconv.ParseUint(string(buf[loc[2]:loc[3]]), 10, 64)
	if err != nil {
		return match{}, false
	}
	return match{
		kind:  matchSuccess,
		start: loc[0],
		end:   lineEnd(buf, loc[1]),
		text:  string(buf[loc[0]:loc[1]]),
		logID: logID,
	}, true
}

// earliest returns whichever match starts first
func earliest(a match, okA bool, b match, okB bool) (match, bool) {
	switch {
	case okA && okB:
		if b.start < a.start {
			return b, true
		}
		return a, true
	case okA:
		return a, true
	case okB:
		return b, true
	}
	return match{}, false
}

// lineEnd extends offset to just past the next newline, if one is buffered
func lineEnd(buf []byte, offset int) int {
	if i := bytes.IndexByte(buf[offset:], '\n'); i >= 0 {
		return offset + i + 1
	}
	return len(buf)
}
