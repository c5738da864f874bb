// Package xyz reads atomic positions from XYZ files. The title line may hold
// the cell vectors of a periodic structure: the first nine plain decimal
// numbers found in it are a_x, a_y, a_z, b_x, b_y, b_z, c_x, c_y and c_z.
// Words that aren't such numbers are ignored. With less than nine numbers the
// structure is aperiodic.
package xyz

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Structure is the content of an XYZ file.
type Structure struct {
	Title     string
	Symbols   []string
	Positions [][3]float64

	// Cell holds the cell vectors row by row. It is nil for aperiodic
	// structures.
	Cell *[3][3]float64
}

// Len returns the number of atoms.
func (s *Structure) Len() int {
	return len(s.Symbols)
}

// Periodic reports whether the title line held cell vectors.
func (s *Structure) Periodic() bool {
	return s.Cell != nil
}

// ReadFile reads the XYZ file at path.
func ReadFile(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Read reads the first frame of an XYZ file.
func Read(r io.Reader) (*Structure, error) {
	br := bufio.NewReader(r)

	l, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("line 1: %w", err)
	}
	atoms, err := strconv.Atoi(strings.TrimSpace(l))
	if err != nil || atoms < 0 {
		return nil, fmt.Errorf("line 1: invalid number of atoms %q", strings.TrimSpace(l))
	}

	title, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("line 2: %w", err)
	}

	s := &Structure{
		Title:     strings.TrimSpace(title),
		Symbols:   make([]string, atoms),
		Positions: make([][3]float64, atoms),
		Cell:      cell(title),
	}

	for i := 0; i < atoms; i++ {
		l, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+3, err)
		}

		fields := strings.Fields(l)
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: not enough columns (at least 4; got %d)", i+3, len(fields))
		}

		s.Symbols[i] = fields[0]
		for k := 0; k < 3; k++ {
			s.Positions[i][k], err = strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+3, err)
			}
		}
	}

	return s, nil
}

// readLine returns the next line without its end of line. A last line without
// end of line is accepted.
func readLine(r *bufio.Reader) (string, error) {
	l, err := r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || len(l) == 0 {
			return "", fmt.Errorf("unexpected end of file: %w", err)
		}
	}
	return strings.TrimRight(l, "\r\n"), nil
}

func cell(title string) *[3][3]float64 {
	var nums []float64
	for _, w := range strings.Fields(title) {
		if !plainDecimal(w) {
			continue
		}
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			continue
		}
		nums = append(nums, v)
		if len(nums) == 9 {
			break
		}
	}

	if len(nums) < 9 {
		return nil
	}

	var c [3][3]float64
	for k, v := range nums {
		c[k/3][k%3] = v
	}
	return &c
}

// plainDecimal reports whether w is made of digits and at most one dot.
func plainDecimal(w string) bool {
	var digits, dots int
	for _, r := range w {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
