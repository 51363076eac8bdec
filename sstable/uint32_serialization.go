package sstable

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bobonovski/ldagibbs/matrix"
)

// serialize data to file
func Uint32Serialize(m *matrix.Uint32Matrix, fn string) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if err := WriteUint32(out, m); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteUint32 writes a count matrix in the sstable text layout.
func WriteUint32(w io.Writer, m *matrix.Uint32Matrix) error {
	bw := bufio.NewWriter(w)

	r, c := m.Shape()
	// write the matrix shape
	fmt.Fprintf(bw, "%d,%d\n", r, c)

	var val uint32
	for ridx := uint32(0); ridx < r; ridx += 1 {
		for cidx := uint32(0); cidx < c; cidx += 1 {
			val = m.Get(ridx, cidx)
			if val > 0 { // only write out nonzero value
				fmt.Fprintf(bw, "%d,%d,%d\n", ridx, cidx, val)
			}
		}
	}
	return bw.Flush()
}

// deserialize data from file
func Uint32Deserialize(fn string) (*matrix.Uint32Matrix, error) {
	file, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadUint32(file)
}

// ReadUint32 reads a count matrix written by WriteUint32.
func ReadUint32(r io.Reader) (*matrix.Uint32Matrix, error) {
	var tmp *matrix.Uint32Matrix

	err := scan(r, func(row, col int) error {
		m, err := matrix.NewUint32Matrix(row, col)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
		tmp = m
		return nil
	}, func(ridx, cidx int, value string) error {
		val, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		tmp.Set(uint32(ridx), uint32(cidx), uint32(val))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tmp, nil
}

func parsePair(txt string) (int, int, error) {
	shape := strings.Split(txt, ",")
	if len(shape) != 2 {
		return 0, 0, fmt.Errorf("want 2 fields, got %d", len(shape))
	}
	row, err := strconv.ParseUint(shape[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	col, err := strconv.ParseUint(shape[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return int(row), int(col), nil
}

func splitElement(txt string) (string, string, string, bool) {
	value := strings.Split(txt, ",")
	if len(value) != 3 {
		return "", "", "", false
	}
	return value[0], value[1], value[2], true
}
