package mat

import (
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	FnameShape = "shape.csv"
	FnameCOO   = "coo.csv"
)

// WriteCOO stores the matrix as shape.csv plus coo.csv. Values and row
// indices equal to the previously written triplet are left blank for
// compression.
func (m *COO) WriteCOO(dir string) error {
	shapePath := filepath.Join(dir, FnameShape)
	if err := os.WriteFile(shapePath, []byte(fmt.Sprintf("%d,%d", m.rows, m.cols)), 0644); err != nil {
		return errors.Wrap(err, "")
	}

	cooPath := filepath.Join(dir, FnameCOO)
	cooF, err := os.Create(cooPath)
	if err != nil {
		return errors.Wrap(err, "")
	}

	w := csv.NewWriter(cooF)
	prev := Triplet{V: complex(math.NaN(), 0), Row: -1, Col: -1}
	for _, v := range m.Data {
		var vStr string
		if v.V != prev.V {
			vStr = FormatNumpy(v.V)
		}
		var rowStr string
		if v.Row != prev.Row {
			rowStr = strconv.Itoa(v.Row)
		}
		colStr := strconv.Itoa(v.Col)

		if err1 := w.Write([]string{vStr, rowStr, colStr}); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
		prev = v
	}
	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}

	if err1 := cooF.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

type COOReader struct {
	f *os.File
	r *csv.Reader
	i int

	prev Triplet
}

func NewCOOReader(dir string) (*COOReader, error) {
	r := &COOReader{i: -1}

	cooPath := filepath.Join(dir, FnameCOO)
	var err error
	r.f, err = os.Open(cooPath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r.r = csv.NewReader(r.f)
	return r, nil
}

func (r *COOReader) Close() error {
	return r.f.Close()
}

func (r *COOReader) Read() (Triplet, error) {
	r.i++
	record, err := r.r.Read()
	if err == io.EOF {
		return Triplet{}, io.EOF
	}
	if err != nil {
		return Triplet{}, errors.Wrap(err, fmt.Sprintf("%d", r.i))
	}
	if len(record) != 3 {
		return Triplet{}, errors.Errorf("%d %#v", r.i, record)
	}

	var t Triplet
	switch {
	case record[0] == "":
		t.V = r.prev.V
	default:
		s := strings.ReplaceAll(record[0], "j", "i")
		v, err := strconv.ParseComplex(s, 128)
		if err != nil {
			return Triplet{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
		t.V = v
	}

	switch {
	case record[1] == "":
		t.Row = r.prev.Row
	default:
		t.Row, err = strconv.Atoi(record[1])
		if err != nil {
			return Triplet{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}

	t.Col, err = strconv.Atoi(record[2])
	if err != nil {
		return Triplet{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
	}

	r.prev = t
	return t, nil
}

func ReadCOO(dir string) (*COO, error) {
	m := M([][]complex128{{0}})
	m.Data = m.Data[:0]
	var err error
	m.rows, m.cols, err = readShape(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r, err := NewCOOReader(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer r.Close()
	for {
		v, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		m.Data = append(m.Data, v)
	}

	return m, nil
}

func readShape(dir string) (int, int, error) {
	f, err := os.Open(filepath.Join(dir, FnameShape))
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	if len(records) == 0 {
		return -1, -1, errors.Errorf("empty")
	}
	row := records[0]

	if len(row) != 2 {
		return -1, -1, errors.Errorf("%#v", row)
	}
	i, err := strconv.Atoi(row[0])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}
	j, err := strconv.Atoi(row[1])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}

	return i, j, nil
}

// Hash returns a content hash over the shape and the compressed triplets.
// Equal matrices hash equally, bit for bit.
func (m *COO) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte

	writeInt := func(i int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		h.Write(buf[:])
	}
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}

	writeInt(m.rows)
	writeInt(m.cols)
	for _, v := range m.Data {
		writeInt(v.Row)
		writeInt(v.Col)
		writeFloat(real(v.V))
		writeFloat(imag(v.V))
	}
	return h.Sum64()
}

// FormatNumpy renders a value in the format numpy understands.
func FormatNumpy(v complex128) string {
	switch {
	case imag(v) == 0:
		return strconv.FormatFloat(real(v), 'g', -1, 64)
	default:
		s := fmt.Sprintf("%v", v)
		s = strings.ReplaceAll(s, "i", "j")
		return s
	}
}
