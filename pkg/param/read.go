package param

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Kinds of ParseError. Use errors.Is to match them.
var (
	ErrUnknownKeyword      = errors.New("unknown keyword")
	ErrArityMismatch       = errors.New("wrong number of fields")
	ErrUnparsableValue     = errors.New("unparsable value")
	ErrSelfPairedIncrement = errors.New("increment between identical atom types")
)

// maxLine bounds the length of a line, comment included.
const maxLine = 1 << 30

// ErrInvalidResolution is returned by Load when the number of decimals is out
// of range.
var ErrInvalidResolution = errors.New("invalid resolution")

// ParseError is a malformed record of a parameter file.
type ParseError struct {
	File string
	Line int
	Kind error
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %s", e.File, e.Line, e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

// LoadFile opens the parameter file at path and loads it with Load.
func LoadFile(path string, decimals int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f, path, decimals)
}

// Load reads a parameter file. A # starts a comment and blank lines are
// ignored. Every other line is a record
//
//	KEYWORD TYPE [TYPE] VALUE
//
// where KEYWORD is CHARGE (one type), BCI-12 or BCI-13 (two types). Values
// are rounded to the given number of decimals. name identifies the input in
// errors. The first malformed record aborts the load; no table is returned.
func Load(r io.Reader, name string, decimals int) (*Table, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: %d decimals (expected 0 to %d)",
			ErrInvalidResolution, decimals, MaxDecimals)
	}

	t := newTable(decimals)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	var line int
	for sc.Scan() {
		line++

		fields := strings.Fields(stripComment(sc.Text()))
		if len(fields) == 0 {
			continue
		}

		k, key, v, err := parseRecord(fields)
		if err != nil {
			err.File = name
			err.Line = line
			return nil, err
		}
		t.set(k, key, v)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}

func parseRecord(fields []string) (Keyword, Key, float64, *ParseError) {
	k, ok := ParseKeyword(fields[0])
	if !ok {
		return 0, Key{}, 0, &ParseError{Kind: ErrUnknownKeyword, Msg: strconv.Quote(fields[0])}
	}

	if len(fields) != k.Arity()+2 {
		return 0, Key{}, 0, &ParseError{
			Kind: ErrArityMismatch,
			Msg: fmt.Sprintf("%s expects %d atom type(s) and a value, got %d field(s)",
				k, k.Arity(), len(fields)-1),
		}
	}

	raw := fields[len(fields)-1]
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || strings.ContainsAny(raw, "xX") {
		return 0, Key{}, 0, &ParseError{Kind: ErrUnparsableValue, Msg: strconv.Quote(raw)}
	}

	key := Key{A: fields[1]}
	if k.Arity() == 2 {
		key.B = fields[2]
		if key.A == key.B {
			return 0, Key{}, 0, &ParseError{
				Kind: ErrSelfPairedIncrement,
				Msg:  fmt.Sprintf("%s %s %s", k, key.A, key.B),
			}
		}
	}

	return k, key, v, nil
}
