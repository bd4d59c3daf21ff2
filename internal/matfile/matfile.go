// Package matfile reads numeric matrices from MATLAB Level 5 MAT-files,
// the format written by MATLAB up to -v7 and by scipy.io.savemat.
//
// Only real, two-dimensional numeric arrays are returned. Cell, struct,
// char, sparse and complex variables are skipped. Version 7.3 files are
// HDF5 containers and are rejected.
package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/RMahshie/photoiso/pkg/spectral"
)

// ErrFormat is returned for data that is not a readable Level 5 MAT-file.
var ErrFormat = errors.New("invalid MAT-file")

// ErrNoVariable is returned when no matrix matches the request.
var ErrNoVariable = errors.New("no matching MAT-file variable")

const headerLen = 128

// Data element types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

// Array classes with numeric storage.
const (
	mxDOUBLE = 6
	mxUINT64 = 15

	complexFlag = 0x08
)

// Matrix is a real two-dimensional array stored column-major.
type Matrix struct {
	Name string
	Rows int
	Cols int
	Data []float64
}

// At returns the element in row r, column c (both 0-based).
func (m Matrix) At(r, c int) float64 {
	return m.Data[c*m.Rows+r]
}

// Decode returns the numeric matrices of a MAT-file in file order.
func Decode(data []byte) ([]Matrix, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrFormat, len(data))
	}
	if bytes.HasPrefix(data, []byte("MATLAB 7.3")) {
		return nil, fmt.Errorf("%w: version 7.3 (HDF5) files are not supported, re-save with -v7", ErrFormat)
	}

	d := decoder{}
	switch string(data[126:128]) {
	case "IM":
		d.order = binary.LittleEndian
	case "MI":
		d.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad endian indicator %q", ErrFormat, data[126:128])
	}

	if err := d.elements(data[headerLen:]); err != nil {
		return nil, err
	}
	return d.matrices, nil
}

type decoder struct {
	order    binary.ByteOrder
	matrices []Matrix
}

func (d *decoder) elements(buf []byte) error {
	// Anything shorter than a tag is trailing padding.
	for len(buf) >= 8 {
		typ, payload, rest, err := d.next(buf)
		if err != nil {
			return err
		}
		buf = rest

		switch typ {
		case miCOMPRESSED:
			zr, err := zlib.NewReader(bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("%w: compressed element: %v", ErrFormat, err)
			}
			inflated, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return fmt.Errorf("%w: compressed element: %v", ErrFormat, err)
			}
			if err := d.elements(inflated); err != nil {
				return err
			}
		case miMATRIX:
			m, ok, err := d.matrix(payload)
			if err != nil {
				return err
			}
			if ok {
				d.matrices = append(d.matrices, m)
			}
		}
	}
	return nil
}

// next splits the first data element off buf.
func (d *decoder) next(buf []byte) (typ uint32, payload, rest []byte, err error) {
	if len(buf) < 8 {
		return 0, nil, nil, fmt.Errorf("%w: truncated element tag", ErrFormat)
	}

	typ = d.order.Uint32(buf)
	if small := typ >> 16; small != 0 {
		if small > 4 {
			return 0, nil, nil, fmt.Errorf("%w: small element of %d bytes", ErrFormat, small)
		}
		return typ & 0xffff, buf[4 : 4+small], buf[8:], nil
	}

	n := uint64(d.order.Uint32(buf[4:]))
	if n > uint64(len(buf)-8) {
		return 0, nil, nil, fmt.Errorf("%w: element of %d bytes overruns the file", ErrFormat, n)
	}
	end := 8 + int(n)
	payload = buf[8:end]
	if typ != miCOMPRESSED {
		end = min(8+int((n+7)&^7), len(buf))
	}
	return typ, payload, buf[end:], nil
}

// matrix reads an miMATRIX payload. ok is false for variables that are not
// real two-dimensional numeric arrays.
func (d *decoder) matrix(buf []byte) (m Matrix, ok bool, err error) {
	typ, flags, buf, err := d.next(buf)
	if err != nil {
		return Matrix{}, false, err
	}
	if typ != miUINT32 || len(flags) < 8 {
		return Matrix{}, false, fmt.Errorf("%w: bad array flags", ErrFormat)
	}
	word := d.order.Uint32(flags)
	class := word & 0xff
	complexArray := (word>>8)&complexFlag != 0

	typ, dims, buf, err := d.next(buf)
	if err != nil {
		return Matrix{}, false, err
	}
	if typ != miINT32 || len(dims)%4 != 0 {
		return Matrix{}, false, fmt.Errorf("%w: bad dimensions", ErrFormat)
	}

	typ, name, buf, err := d.next(buf)
	if err != nil {
		return Matrix{}, false, err
	}
	if typ != miINT8 {
		return Matrix{}, false, fmt.Errorf("%w: bad array name", ErrFormat)
	}
	m.Name = string(name)

	if class < mxDOUBLE || class > mxUINT64 || complexArray || len(dims) != 8 {
		return Matrix{}, false, nil
	}
	m.Rows = int(int32(d.order.Uint32(dims)))
	m.Cols = int(int32(d.order.Uint32(dims[4:])))
	if m.Rows < 0 || m.Cols < 0 {
		return Matrix{}, false, fmt.Errorf("%w: %s has negative dimensions", ErrFormat, m.Name)
	}

	typ, values, _, err := d.next(buf)
	if err != nil {
		return Matrix{}, false, err
	}
	m.Data, err = d.numbers(typ, values)
	if err != nil {
		return Matrix{}, false, fmt.Errorf("%s: %w", m.Name, err)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return Matrix{}, false, fmt.Errorf("%w: %s is %dx%d but holds %d values",
			ErrFormat, m.Name, m.Rows, m.Cols, len(m.Data))
	}
	return m, true, nil
}

// numbers widens a numeric element to float64. MATLAB may store a double
// array in a smaller integer type when every value fits.
func (d *decoder) numbers(typ uint32, b []byte) ([]float64, error) {
	var size int
	switch typ {
	case miINT8, miUINT8:
		size = 1
	case miINT16, miUINT16:
		size = 2
	case miINT32, miUINT32, miSINGLE:
		size = 4
	case miDOUBLE, miINT64, miUINT64:
		size = 8
	default:
		return nil, fmt.Errorf("%w: element type %d is not numeric", ErrFormat, typ)
	}
	if len(b)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte values", ErrFormat, len(b), size)
	}

	out := make([]float64, len(b)/size)
	for i := range out {
		p := b[i*size:]
		switch typ {
		case miINT8:
			out[i] = float64(int8(p[0]))
		case miUINT8:
			out[i] = float64(p[0])
		case miINT16:
			out[i] = float64(int16(d.order.Uint16(p)))
		case miUINT16:
			out[i] = float64(d.order.Uint16(p))
		case miINT32:
			out[i] = float64(int32(d.order.Uint32(p)))
		case miUINT32:
			out[i] = float64(d.order.Uint32(p))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(d.order.Uint32(p)))
		case miDOUBLE:
			out[i] = math.Float64frombits(d.order.Uint64(p))
		case miINT64:
			out[i] = float64(int64(d.order.Uint64(p)))
		case miUINT64:
			out[i] = float64(d.order.Uint64(p))
		}
	}
	return out, nil
}

// ReadSpectrum pairs two columns of a matrix as (wavelength, value). The
// variable is looked up by name; when name is empty the first matrix with
// at least two columns is used. A matrix with two rows and more columns is
// read as its transpose. Columns are 1-based.
func ReadSpectrum(data []byte, name string, wavelengthCol, valueCol int) (spectral.RawSpectrum, error) {
	matrices, err := Decode(data)
	if err != nil {
		return nil, err
	}

	m, err := pick(matrices, name)
	if err != nil {
		return nil, err
	}
	if m.Rows == 2 && m.Cols > 2 {
		m = m.transpose()
	}
	if wavelengthCol < 1 || valueCol < 1 || wavelengthCol > m.Cols || valueCol > m.Cols {
		return nil, fmt.Errorf("%w: %s is %dx%d, columns %d and %d requested",
			ErrFormat, m.Name, m.Rows, m.Cols, wavelengthCol, valueCol)
	}

	raw := make(spectral.RawSpectrum, m.Rows)
	for r := range raw {
		raw[r] = spectral.Point{
			Wavelength: m.At(r, wavelengthCol-1),
			Value:      m.At(r, valueCol-1),
		}
	}
	return raw, nil
}

func pick(matrices []Matrix, name string) (Matrix, error) {
	names := make([]string, 0, len(matrices))
	for _, m := range matrices {
		if name == "" && m.Cols >= 2 {
			return m, nil
		}
		if name != "" && m.Name == name {
			return m, nil
		}
		names = append(names, m.Name)
	}

	if name == "" {
		return Matrix{}, fmt.Errorf("%w: no matrix with two columns (have %s)", ErrNoVariable, strings.Join(names, ", "))
	}
	return Matrix{}, fmt.Errorf("%w: %q (have %s)", ErrNoVariable, name, strings.Join(names, ", "))
}

func (m Matrix) transpose() Matrix {
	t := Matrix{Name: m.Name, Rows: m.Cols, Cols: m.Rows, Data: make([]float64, len(m.Data))}
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			t.Data[r*t.Rows+c] = m.At(r, c)
		}
	}
	return t
}
