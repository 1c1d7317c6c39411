// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package normalizer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffBytes = 8 << 10

type delimitedSource struct {
	path   string
	f      afero.File
	r      *csv.Reader
	header []string
	line   int
}

func openDelimited(fs afero.Fs, path string, tab bool) (*delimitedSource, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// BOMOverride strips a UTF-8 BOM and decodes UTF-16 input when it carries one.
	br := bufio.NewReaderSize(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())), sniffBytes)
	comma := ','
	if tab {
		comma = '\t'
	} else {
		comma = sniffDelimiter(br)
	}

	r := csv.NewReader(br)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	s := &delimitedSource{path: path, f: f, r: r}
	header, err := r.Read()
	switch {
	case errors.Is(err, io.EOF):
		// empty file: the header check reports every required column
	case err != nil:
		f.Close()
		return nil, s.fault(err)
	default:
		s.header = cleanHeader(header)
		s.line, _ = r.FieldPos(0)
	}
	return s, nil
}

func (s *delimitedSource) Header() []string { return s.header }

func (s *delimitedSource) Next() ([]string, error) {
	rec, err := s.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, s.fault(err)
	}
	s.line, _ = s.r.FieldPos(0)
	return rec, nil
}

func (s *delimitedSource) Line() int { return s.line }

func (s *delimitedSource) Close() error { return s.f.Close() }

func (s *delimitedSource) fault(err error) error {
	line := s.line
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line = pe.Line
	}
	return &ParseFault{Path: s.path, Line: line, Err: err}
}

// sniffDelimiter picks the most frequent of comma, semicolon, and tab on the
// first line. Ties and lines with none of them resolve to comma.
func sniffDelimiter(br *bufio.Reader) rune {
	buf, _ := br.Peek(sniffBytes)
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i]
	}

	best, bestN := ',', 0
	inQuotes := false
	counts := map[rune]int{}
	for _, b := range buf {
		switch {
		case b == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case b == ',' || b == ';' || b == '\t':
			counts[rune(b)]++
		}
	}
	for _, d := range []rune{',', ';', '\t'} {
		if counts[d] > bestN {
			best, bestN = d, counts[d]
		}
	}
	return best
}
