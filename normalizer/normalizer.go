// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package normalizer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/schema"
)

// Format classifies a source file by extension.
type Format int

const (
	FormatUnsupported Format = iota
	FormatDelimited
	FormatSpreadsheet
)

// RowSource yields the records of one tabular file after its header.
type RowSource interface {
	// Header returns the cleaned header row.
	Header() []string
	// Next returns the next record, or io.EOF when the source is exhausted.
	Next() ([]string, error)
	// Line reports the source position of the record last returned by Next.
	Line() int
	Close() error
}

// DetectFormat maps a file extension (with or without the leading dot) to a
// Format. Matching is case-insensitive.
func DetectFormat(ext string) Format {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	switch ext {
	case ".csv", ".tsv", ".txt":
		return FormatDelimited
	case ".xlsx", ".xlsm":
		return FormatSpreadsheet
	}
	return FormatUnsupported
}

// Open opens path on fs and validates its header against the required
// column set. A header that lacks required columns yields a
// *SchemaValidationError and no source; an unknown extension yields
// ErrUnsupportedFormat.
func Open(fs afero.Fs, path, ext string) (RowSource, error) {
	var (
		src RowSource
		err error
	)
	switch DetectFormat(ext) {
	case FormatDelimited:
		src, err = openDelimited(fs, path, strings.EqualFold(strings.TrimPrefix(ext, "."), "tsv"))
	case FormatSpreadsheet:
		src, err = openSpreadsheet(fs, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if missing := schema.Missing(src.Header()); len(missing) > 0 {
		src.Close()
		return nil, &SchemaValidationError{Missing: missing}
	}
	return src, nil
}

// Normalize reads every remaining record from src and passes it to emit as
// a CanonicalRow. Fully blank records are skipped. It returns the number of
// rows emitted. Decoding failures are returned as *ParseFault; errors from
// emit are returned unchanged.
func Normalize(src RowSource, emit func(models.CanonicalRow) error) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ParseFault{Line: src.Line(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	index := headerIndex(src.Header())
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			var pf *ParseFault
			if errors.As(err, &pf) {
				return n, err
			}
			return n, &ParseFault{Line: src.Line(), Err: err}
		}
		if blank(rec) {
			continue
		}
		if err := emit(models.NewCanonicalRow(index, rec)); err != nil {
			return n, err
		}
		n++
	}
}

// headerIndex maps each canonical column to its first position in header.
// Extra columns are ignored.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(schema.CanonicalColumns))
	for i, h := range header {
		h = schema.CleanHeader(h)
		if !schema.IsCanonical(h) {
			continue
		}
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}
	return index
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cleanHeader(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		out[i] = schema.CleanHeader(h)
	}
	return out
}
