// Package spectrumcsv reads and writes spectra as delimited text.
package spectrumcsv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RMahshie/photoiso/pkg/spectral"
)

// ErrFormat is returned for text that cannot be read as a spectrum.
var ErrFormat = errors.New("invalid spectrum file")

// Value column headers used when writing library files.
const (
	StimulusColumn    = "relative_intensity"
	SensitivityColumn = "sensitivity"
)

// Parse reads a two-column spectrum. The delimiter is a tab when the first
// line contains one and a comma otherwise. A first row that does not parse as
// numbers is treated as a header. Columns beyond the second are ignored.
//
// Rows are returned in file order; callers validate ordering.
func Parse(data []byte) (spectral.RawSpectrum, error) {
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = ','
	if bytes.ContainsRune(firstLine, '\t') {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'

	var raw spectral.RawSpectrum
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: expected at least 2 columns, got %d on line %d", ErrFormat, len(record), row+1)
		}

		p, err := parsePoint(record[0], record[1])
		if err != nil {
			if row == 0 {
				continue // header
			}
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		raw = append(raw, p)
	}

	return raw, nil
}

// ParseColumns reads whitespace-separated two-column text, the layout of
// exported spectrometer .txt files.
func ParseColumns(data []byte) (spectral.RawSpectrum, error) {
	var raw spectral.RawSpectrum
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: expected 2 columns on line %d", ErrFormat, line)
		}
		p, err := parsePoint(fields[0], fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		raw = append(raw, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return raw, nil
}

// ParseSingleLine reads "wl val wl val ..." with any whitespace between
// tokens, as written by the older USB spectrometer software.
func ParseSingleLine(data []byte) (spectral.RawSpectrum, error) {
	tokens := strings.Fields(string(data))
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of values (%d)", ErrFormat, len(tokens))
	}

	raw := make(spectral.RawSpectrum, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		p, err := parsePoint(tokens[i], tokens[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d: %v", ErrFormat, i/2+1, err)
		}
		raw = append(raw, p)
	}
	return raw, nil
}

// Write emits a header and one row per grid point.
func Write(w io.Writer, s spectral.GridSpectrum, valueColumn string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"wavelength_nm", valueColumn}); err != nil {
		return err
	}
	for _, p := range s.Points() {
		row := []string{
			strconv.FormatFloat(p.Wavelength, 'f', -1, 64),
			strconv.FormatFloat(p.Value, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Encode is Write into a byte slice.
func Encode(s spectral.GridSpectrum, valueColumn string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, s, valueColumn); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parsePoint(wl, val string) (spectral.Point, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(wl), 64)
	if err != nil {
		return spectral.Point{}, fmt.Errorf("wavelength %q: %w", wl, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return spectral.Point{}, fmt.Errorf("value %q: %w", val, err)
	}
	return spectral.Point{Wavelength: w, Value: v}, nil
}
