// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package normalizer

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrUnsupportedFormat is returned by Open for file types that are neither
// delimited text nor spreadsheets.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// SchemaValidationError reports required columns absent from a source header.
type SchemaValidationError struct {
	Missing []string
}

func (e *SchemaValidationError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// ParseFault wraps a failure to decode a source file after its header was accepted.
type ParseFault struct {
	Path string
	Line int // 1-based source line or sheet row, 0 if unknown
	Err  error
}

func (e *ParseFault) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseFault) Unwrap() error { return e.Err }

// Reason is the fault without the file path: the source line when known,
// then the cause. Safe to show to whoever uploaded the file.
func (e *ParseFault) Reason() string {
	cause := e.Err.Error()
	var pe *fs.PathError
	if errors.As(e.Err, &pe) {
		cause = pe.Op + ": " + pe.Err.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, cause)
	}
	return cause
}
