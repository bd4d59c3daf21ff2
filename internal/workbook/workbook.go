// Package workbook reads spectra from Excel workbooks.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/RMahshie/photoiso/pkg/spectral"
)

// ErrFormat is returned for workbooks that cannot be read as a spectrum.
var ErrFormat = errors.New("invalid spectrum workbook")

// Options select the table holding the spectrum.
type Options struct {
	// Sheet defaults to the first sheet.
	Sheet string
	// Columns are 1-based.
	WavelengthColumn int
	ValueColumn      int
	// SkipRows leading rows are ignored, usually a header.
	SkipRows int
}

// DefaultOptions reads columns A and B of the first sheet below one header row.
func DefaultOptions() Options {
	return Options{WavelengthColumn: 1, ValueColumn: 2, SkipRows: 1}
}

// ParseColumn accepts a 1-based column number or a column letter such as "D".
func ParseColumn(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("column %d: columns start at 1", n)
		}
		return n, nil
	}
	n, err := excelize.ColumnNameToNumber(s)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", s, err)
	}
	return n, nil
}

// Read returns the (wavelength, value) pairs of the selected columns. Rows
// where either cell is empty are skipped; any other non-numeric cell is an
// error. Cached formula results are read, not the formulas.
func Read(r io.Reader, opts Options) (spectral.RawSpectrum, error) {
	if opts.WavelengthColumn < 1 || opts.ValueColumn < 1 {
		return nil, fmt.Errorf("%w: columns start at 1", ErrFormat)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: no sheets", ErrFormat)
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: no sheet %q (have %s)", ErrFormat, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrFormat, sheet, err)
	}

	var raw spectral.RawSpectrum
	for i, row := range rows {
		if i < opts.SkipRows {
			continue
		}
		wl := cell(row, opts.WavelengthColumn)
		v := cell(row, opts.ValueColumn)
		if wl == "" || v == "" {
			continue
		}

		wavelength, err := number(wl, opts.WavelengthColumn, i+1)
		if err != nil {
			return nil, err
		}
		value, err := number(v, opts.ValueColumn, i+1)
		if err != nil {
			return nil, err
		}
		raw = append(raw, spectral.Point{Wavelength: wavelength, Value: value})
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no data rows", ErrFormat, sheet)
	}
	return raw, nil
}

func cell(row []string, col int) string {
	if col > len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}

func number(s string, col, row int) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		ref, _ := excelize.CoordinatesToCellName(col, row)
		return 0, fmt.Errorf("%w: cell %s is not a number: %q", ErrFormat, ref, s)
	}
	return v, nil
}
