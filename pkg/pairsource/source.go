// Package pairsource reads candidate (fromid, toid) pairs from a delimited
// text file, one record at a time.
package pairsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultFromField is the header name of the source identifier column
	DefaultFromField = "fromid"
	// DefaultToField is the header name of the target identifier column
	DefaultToField = "toid"
	// DefaultDelimiter separates fields in a record
	DefaultDelimiter = ";"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Candidate is one unvalidated pair as read from the source
type Candidate struct {
	FromID string
	ToID   string
	// Record is the 1-based data record number (header excluded)
	Record int
}

// Source yields candidates in order. Next returns io.EOF when exhausted.
type Source interface {
	Next() (Candidate, error)
}

// Options configures a CSV source
type Options struct {
	Delimiter string
	FromField string
	ToField   string
}

func (o Options) withDefaults() Options {
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	if o.FromField == "" {
		o.FromField = DefaultFromField
	}
	if o.ToField == "" {
		o.ToField = DefaultToField
	}
	return o
}

// CSVSource reads candidates lazily from delimited text
type CSVSource struct {
	reader  *csv.Reader
	closer  io.Closer
	fromIdx int
	toIdx   int
	record  int
}

// Open opens path and reads its header
func Open(path string, opts Options) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	src, err := NewCSVSource(file, opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	src.closer = file
	return src, nil
}

// NewCSVSource reads the header from r and checks that both identifier
// columns are declared. No data record is consumed.
func NewCSVSource(r io.Reader, opts Options) (*CSVSource, error) {
	opts = opts.withDefaults()

	delim, size := utf8.DecodeRuneInString(opts.Delimiter)
	if size != len(opts.Delimiter) || delim == utf8.RuneError {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, opts.Delimiter)
	}

	reader := csv.NewReader(skipBOM(r))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	fromIdx, toIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case opts.FromField:
			fromIdx = i
		case opts.ToField:
			toIdx = i
		}
	}
	if fromIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, opts.FromField)
	}
	if toIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, opts.ToField)
	}

	return &CSVSource{
		reader:  reader,
		fromIdx: fromIdx,
		toIdx:   toIdx,
	}, nil
}

// Next returns the next candidate. Short records yield empty fields, which
// the driver later rejects as malformed.
func (s *CSVSource) Next() (Candidate, error) {
	row, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Candidate{}, io.EOF
		}
		return Candidate{}, fmt.Errorf("failed to read record %d: %w", s.record+1, err)
	}
	s.record++

	return Candidate{
		FromID: field(row, s.fromIdx),
		ToID:   field(row, s.toIdx),
		Record: s.record,
	}, nil
}

// Close closes the underlying file, if any
func (s *CSVSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// skipBOM drops a leading UTF-8 byte order mark so the first header name
// still matches.
func skipBOM(r io.Reader) io.Reader {
	head := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(r, head)
	head = head[:n]
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return io.MultiReader(bytes.NewReader(head), errReader{err})
	}
	if bytes.Equal(head, utf8BOM) {
		return r
	}
	return io.MultiReader(bytes.NewReader(head), r)
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
