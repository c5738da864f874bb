// Package param holds the charge and bond-charge increment parameters of a
// force field. A Table is built once by Load and never changes afterwards,
// so it can be shared by any number of goroutines.
package param

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"
)

// DefaultDecimals is the resolution used when no precision is configured.
// MaxDecimals is the finest resolution a float64 can hold reliably.
const (
	DefaultDecimals = 4
	MaxDecimals     = 15
)

// Keyword is the first word of a record in a parameter file.
type Keyword int

// Charge sets the base charge of an atom type. BCI12 is the increment
// between two bonded atoms, BCI13 the increment between two atoms bonded to
// the same third atom.
const (
	Charge Keyword = iota
	BCI12
	BCI13

	numKeywords
)

var keywordNames = [numKeywords]string{"CHARGE", "BCI-12", "BCI-13"}

func (k Keyword) String() string {
	if k < 0 || k >= numKeywords {
		return "Keyword(" + strconv.Itoa(int(k)) + ")"
	}
	return keywordNames[k]
}

// Arity returns the number of atom types a record of this keyword names.
func (k Keyword) Arity() int {
	if k == Charge {
		return 1
	}
	return 2
}

// Keywords returns every keyword in file order.
func Keywords() []Keyword {
	return []Keyword{Charge, BCI12, BCI13}
}

// ParseKeyword matches s against the known keywords, ignoring case.
func ParseKeyword(s string) (Keyword, bool) {
	for k, name := range keywordNames {
		if strings.EqualFold(s, name) {
			return Keyword(k), true
		}
	}
	return 0, false
}

// Key identifies a parameter. B is empty for CHARGE entries.
type Key struct {
	A, B string
}

// Reverse swaps the two atom types.
func (k Key) Reverse() Key {
	return Key{A: k.B, B: k.A}
}

// Table maps atom types to base charges and pairs of atom types to
// increments. For every increment (A,B) = v the table also holds
// (B,A) = -v.
type Table struct {
	decimals int
	values   [numKeywords]map[Key]float64
}

func newTable(decimals int) *Table {
	t := &Table{decimals: decimals}
	for k := range t.values {
		t.values[k] = make(map[Key]float64)
	}
	return t
}

// Decimals returns the number of decimal places the values are rounded to.
func (t *Table) Decimals() int {
	return t.decimals
}

// Round rounds v to the resolution of the table.
func (t *Table) Round(v float64) float64 {
	v = scalar.Round(v, t.decimals)
	if v == 0 {
		return 0 // no negative zero
	}
	return v
}

// Lookup returns the value stored for key under keyword k.
func (t *Table) Lookup(k Keyword, key Key) (float64, bool) {
	v, ok := t.values[k][key]
	return v, ok
}

// Charge returns the base charge of an atom type.
func (t *Table) Charge(typ string) (float64, bool) {
	return t.Lookup(Charge, Key{A: typ})
}

// Bond returns the increment added to an atom of type a bonded to an atom of
// type b.
func (t *Table) Bond(a, b string) (float64, bool) {
	return t.Lookup(BCI12, Key{A: a, B: b})
}

// Angle is like Bond for 1-3 pairs.
func (t *Table) Angle(a, b string) (float64, bool) {
	return t.Lookup(BCI13, Key{A: a, B: b})
}

// Len returns the number of keys stored under k, reverse keys included.
func (t *Table) Len(k Keyword) int {
	return len(t.values[k])
}

// Records returns the number of distinct records stored under k. An increment
// and its reverse key count once.
func (t *Table) Records(k Keyword) int {
	return len(t.values[k]) / k.Arity()
}

// Keys returns the keys stored under k sorted by A then B.
func (t *Table) Keys(k Keyword) []Key {
	keys := make([]Key, 0, len(t.values[k]))
	for key := range t.values[k] {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	return keys
}

// set rounds v and stores it. Increments also get their reverse key. A later
// call for the same key overwrites the earlier value.
func (t *Table) set(k Keyword, key Key, v float64) {
	v = t.Round(v)
	t.values[k][key] = v
	if k.Arity() == 2 {
		t.values[k][key.Reverse()] = t.Round(-v)
	}
}

// WriteTo writes the table in the parameter file syntax, reverse keys
// included.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, k := range Keywords() {
		for _, key := range t.Keys(k) {
			value := strconv.FormatFloat(t.values[k][key], 'f', t.decimals, 64)

			var n int
			var err error
			if k.Arity() == 1 {
				n, err = fmt.Fprintf(w, "%-6s %s %s\n", k, key.A, value)
			} else {
				n, err = fmt.Fprintf(w, "%-6s %s %s %s\n", k, key.A, key.B, value)
			}
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// DecimalsFor converts a precision such as 0.001 into a number of decimal
// places. A precision lower or equal to zero gives DefaultDecimals.
func DecimalsFor(precision float64) int {
	if precision <= 0 {
		return DefaultDecimals
	}

	d := int(math.Ceil(-math.Log10(precision) - 1e-9))
	if d < 0 {
		return 0
	}
	if d > MaxDecimals {
		return MaxDecimals
	}
	return d
}
