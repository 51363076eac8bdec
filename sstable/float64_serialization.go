package sstable

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/mat"
)

// Float64Serialize writes m to fn as a "rows,cols" header followed by
// one "row,col,value" line per nonzero element.
func Float64Serialize(m mat.Matrix, fn string) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if err := WriteFloat64(out, m); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteFloat64 writes m in the sstable text layout.
func WriteFloat64(w io.Writer, m mat.Matrix) error {
	bw := bufio.NewWriter(w)

	r, c := m.Dims()
	// write the matrix shape
	fmt.Fprintf(bw, "%d,%d\n", r, c)

	var val float64
	for ridx := 0; ridx < r; ridx += 1 {
		for cidx := 0; cidx < c; cidx += 1 {
			val = m.At(ridx, cidx)
			if val != 0 { // only write out nonzero value
				fmt.Fprintf(bw, "%d,%d,%s\n", ridx, cidx,
					strconv.FormatFloat(val, 'e', -1, 64))
			}
		}
	}
	return bw.Flush()
}

// deserialize data from file
func Float64Deserialize(fn string) (*mat.Dense, error) {
	file, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadFloat64(file)
}

// ReadFloat64 reads a matrix written by WriteFloat64. Lines without
// three fields are logged and skipped; unparsable numbers and
// positions outside the declared shape are errors.
func ReadFloat64(r io.Reader) (*mat.Dense, error) {
	var tmp *mat.Dense

	err := scan(r, func(row, col int) error {
		tmp = mat.NewDense(row, col, nil)
		return nil
	}, func(ridx, cidx int, value string) error {
		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		tmp.Set(ridx, cidx, val)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tmp, nil
}

// maxElements bounds the shape a header may declare.
const maxElements = math.MaxInt32

// scan walks the header and the element lines of a serialized matrix.
func scan(r io.Reader, shape func(row, col int) error,
	element func(ridx, cidx int, value string) error) error {
	lineIdx := 0
	var nrow, ncol int

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		txt := scanner.Text()
		if lineIdx == 0 {
			row, col, err := parsePair(txt)
			if err != nil {
				return fmt.Errorf("%w: shape not found: %s", ErrCorrupted, txt)
			}
			if row <= 0 || col <= 0 || uint64(row)*uint64(col) > maxElements {
				return fmt.Errorf("%w: bad shape %dx%d", ErrCorrupted, row, col)
			}
			if err := shape(row, col); err != nil {
				return err
			}
			nrow, ncol = row, col
			lineIdx += 1
			continue
		}

		ridx, cidx, value, ok := splitElement(txt)
		if !ok {
			log.Warningf("data corrupted, row %d, data %s", lineIdx, txt)
			lineIdx += 1
			continue
		}
		ri, err := strconv.ParseUint(ridx, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrCorrupted, lineIdx, err)
		}
		ci, err := strconv.ParseUint(cidx, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrCorrupted, lineIdx, err)
		}
		if int(ri) >= nrow || int(ci) >= ncol {
			return fmt.Errorf("%w: line %d: [%d, %d] outside %dx%d",
				ErrCorrupted, lineIdx, ri, ci, nrow, ncol)
		}
		if err := element(int(ri), int(ci), value); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrCorrupted, lineIdx, err)
		}

		lineIdx += 1
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	if lineIdx == 0 {
		return fmt.Errorf("%w: empty input", ErrCorrupted)
	}
	return nil
}
