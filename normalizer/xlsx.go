// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package normalizer

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

// spreadsheetSource streams the active sheet of a workbook. Cells are read
// as their stored values, so numbers are not reformatted by the cell style.
type spreadsheetSource struct {
	path   string
	f      afero.File
	book   *excelize.File
	rows   *excelize.Rows
	header []string
	row    int
}

func openSpreadsheet(fs afero.Fs, path string) (*spreadsheetSource, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	book, err := excelize.OpenReader(f)
	if err != nil {
		f.Close()
		return nil, &ParseFault{Path: path, Err: err}
	}
	s := &spreadsheetSource{path: path, f: f, book: book}

	sheet := book.GetSheetName(book.GetActiveSheetIndex())
	if sheet == "" {
		s.Close()
		return nil, &ParseFault{Path: path, Err: errors.New("workbook has no sheets")}
	}
	s.rows, err = book.Rows(sheet)
	if err != nil {
		s.Close()
		return nil, &ParseFault{Path: path, Err: fmt.Errorf("sheet %q: %w", sheet, err)}
	}

	header, err := s.Next()
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		s.Close()
		return nil, err
	default:
		s.header = cleanHeader(header)
	}
	return s, nil
}

func (s *spreadsheetSource) Header() []string { return s.header }

func (s *spreadsheetSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, &ParseFault{Path: s.path, Line: s.row, Err: err}
		}
		return nil, io.EOF
	}
	s.row++
	cols, err := s.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseFault{Path: s.path, Line: s.row, Err: err}
	}
	return cols, nil
}

func (s *spreadsheetSource) Line() int { return s.row }

func (s *spreadsheetSource) Close() error {
	var err error
	if s.rows != nil {
		err = multierr.Append(err, s.rows.Close())
	}
	err = multierr.Append(err, s.book.Close())
	return multierr.Append(err, s.f.Close())
}
