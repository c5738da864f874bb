// Package topology describes which atoms of a structure are bonded and what
// type each atom has. It does not know about coordinates: bonds and types
// come from whatever detected them.
package topology

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Pair is a pair of atom indices.
type Pair struct {
	I, J int
}

func canonical(a, b int) Pair {
	if a > b {
		return Pair{I: b, J: a}
	}
	return Pair{I: a, J: b}
}

// View is the read-only topology consumed by the charge assignment.
// Implementations must allow concurrent calls.
type View interface {
	// Len returns the number of atoms.
	Len() int

	// Type returns the type label of atom i.
	Type(i int) string

	// Bonds returns the bonded pairs, each listed once, in input order.
	Bonds() []Pair

	// OneThree returns the pairs of atoms bonded to a common third atom,
	// each listed once with the lower index first.
	OneThree() []Pair
}

// Topology is the View built from a list of types and a list of bonds.
type Topology struct {
	types    []string
	bonds    []Pair
	oneThree []Pair
	g        *simple.UndirectedGraph
}

// New returns a Topology with one atom per element of types. Bond indices
// must be in range, an atom can't be bonded to itself and a bond can only be
// listed once, in either orientation. The orientation of each bond is kept.
func New(types []string, bonds []Pair) (*Topology, error) {
	g := simple.NewUndirectedGraph()
	for i := range types {
		g.AddNode(simple.Node(i))
	}

	for k, b := range bonds {
		if b.I < 0 || b.I >= len(types) || b.J < 0 || b.J >= len(types) {
			return nil, fmt.Errorf("bond %d (%d-%d): index out of range (%d atoms)",
				k, b.I, b.J, len(types))
		}
		if b.I == b.J {
			return nil, fmt.Errorf("bond %d: atom %d is bonded to itself", k, b.I)
		}
		if g.HasEdgeBetween(int64(b.I), int64(b.J)) {
			return nil, fmt.Errorf("bond %d (%d-%d) is listed twice", k, b.I, b.J)
		}
		g.SetEdge(g.NewEdge(simple.Node(b.I), simple.Node(b.J)))
	}

	t := &Topology{
		types: append([]string(nil), types...),
		bonds: append([]Pair(nil), bonds...),
		g:     g,
	}
	t.oneThree = t.deriveOneThree()
	return t, nil
}

// Len returns the number of atoms.
func (t *Topology) Len() int {
	return len(t.types)
}

// Type returns the type label of atom i. It panics if i is out of range.
func (t *Topology) Type(i int) string {
	return t.types[i]
}

// Types returns a copy of the type labels.
func (t *Topology) Types() []string {
	return append([]string(nil), t.types...)
}

// Bonds returns the bonded pairs in input order. The slice must not be
// modified.
func (t *Topology) Bonds() []Pair {
	return t.bonds
}

// OneThree returns the 1-3 pairs sorted by I then J. The slice must not be
// modified.
func (t *Topology) OneThree() []Pair {
	return t.oneThree
}

// Neighbors returns the sorted indices of the atoms bonded to atom i.
func (t *Topology) Neighbors(i int) []int {
	nodes := graph.NodesOf(t.g.From(int64(i)))
	nb := make([]int, len(nodes))
	for k, n := range nodes {
		nb[k] = int(n.ID())
	}
	sort.Ints(nb)
	return nb
}

// deriveOneThree emits every pair of distinct neighbours of every atom. A
// pair reachable through several common neighbours, as in rings, is only
// emitted once.
func (t *Topology) deriveOneThree() []Pair {
	seen := make(map[Pair]struct{})
	var pairs []Pair
	for c := range t.types {
		nb := t.Neighbors(c)
		for x := 0; x < len(nb); x++ {
			for y := x + 1; y < len(nb); y++ {
				p := canonical(nb[x], nb[y])
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				pairs = append(pairs, p)
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].I != pairs[j].I {
			return pairs[i].I < pairs[j].I
		}
		return pairs[i].J < pairs[j].J
	})
	return pairs
}

// OneThree derives the 1-3 pairs of n atoms joined by bonds.
func OneThree(n int, bonds []Pair) ([]Pair, error) {
	t, err := New(make([]string, n), bonds)
	if err != nil {
		return nil, err
	}
	return t.OneThree(), nil
}
