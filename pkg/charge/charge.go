// Package charge computes partial charges from base charges and bond-charge
// increments.
//
// Every atom starts from the base charge of its type. Each bonded pair (i,j)
// then receives the BCI-12 increment of (type i, type j): it is added to i
// and subtracted from j. 1-3 pairs do the same with BCI-13. Since every
// increment moves charge from one atom to another, the total charge is the
// sum of the base charges whatever the topology.
package charge

import (
	"sort"
	"sync"

	"github.com/kpotier/molcharge/pkg/param"
	"github.com/kpotier/molcharge/pkg/topology"
	"gonum.org/v1/gonum/floats"
)

// Vector holds one charge per atom, in atom index order.
type Vector []float64

// Sum returns the total charge.
func (v Vector) Sum() float64 {
	return floats.Sum(v)
}

// Trace records the running total charge after each step of Assign and how
// many lookups found a parameter.
type Trace struct {
	Base  float64 // after the base charges
	Bond  float64 // after the BCI-12 increments
	Angle float64 // after the BCI-13 increments
	Total float64 // of the returned, rounded, vector

	BondApplied, BondMissing   int
	AngleApplied, AngleMissing int

	// Uncharged lists the atom types without a CHARGE entry, sorted.
	Uncharged []string
}

// Drift returns how much the increments changed the total charge. It is zero
// up to floating point noise.
func (t Trace) Drift() float64 {
	return t.Total - t.Base
}

// Option configures Assign.
type Option func(*options)

type options struct {
	workers int
}

// WithWorkers spreads the increments over n goroutines. Each goroutine
// accumulates into its own vector; the vectors are summed at the end. n lower
// than two runs everything in the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Assign returns the charges of the atoms of v. A type without a CHARGE entry
// starts at zero and a pair without an increment is left alone. Each pair is
// looked up in the orientation given by v; reverse keys are never tried
// explicitly. The charges are rounded to the resolution of p.
//
// Assign does not modify its inputs and keeps no state between calls.
func Assign(v topology.View, p *param.Table, opts ...Option) (Vector, Trace) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	var tr Trace
	q := base(v, p, &tr)
	tr.Base = q.Sum()

	tr.BondApplied, tr.BondMissing = increments(q, v, v.Bonds(), p.Bond, o.workers)
	tr.Bond = q.Sum()

	tr.AngleApplied, tr.AngleMissing = increments(q, v, v.OneThree(), p.Angle, o.workers)
	tr.Angle = q.Sum()

	for i := range q {
		q[i] = p.Round(q[i])
	}
	tr.Total = q.Sum()

	return q, tr
}

func base(v topology.View, p *param.Table, tr *Trace) Vector {
	q := make(Vector, v.Len())
	uncharged := make(map[string]struct{})
	for i := range q {
		typ := v.Type(i)
		c, ok := p.Charge(typ)
		if !ok {
			uncharged[typ] = struct{}{}
			continue
		}
		q[i] = c
	}

	for typ := range uncharged {
		tr.Uncharged = append(tr.Uncharged, typ)
	}
	sort.Strings(tr.Uncharged)
	return q
}

type lookup func(a, b string) (float64, bool)

// increments applies look to pairs and adds the result to q.
func increments(q Vector, v topology.View, pairs []topology.Pair, look lookup, workers int) (applied, missing int) {
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers < 2 {
		return apply(q, v, pairs, look)
	}

	var (
		wg      sync.WaitGroup
		partial = make([]Vector, workers)
		counts  = make([][2]int, workers)
		chunk   = (len(pairs) + workers - 1) / workers
	)
	for w := 0; w < workers; w++ {
		lo := min(w*chunk, len(pairs))
		hi := min(lo+chunk, len(pairs))
		partial[w] = make(Vector, len(q))

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			counts[w][0], counts[w][1] = apply(partial[w], v, pairs[lo:hi], look)
		}(w, lo, hi)
	}
	wg.Wait()

	for w := range partial {
		floats.Add(q, partial[w])
		applied += counts[w][0]
		missing += counts[w][1]
	}
	return applied, missing
}

func apply(q Vector, v topology.View, pairs []topology.Pair, look lookup) (applied, missing int) {
	for _, pr := range pairs {
		d, ok := look(v.Type(pr.I), v.Type(pr.J))
		if !ok {
			missing++
			continue
		}
		q[pr.I] += d
		q[pr.J] -= d
		applied++
	}
	return applied, missing
}

// Result is the outcome of Assign for one structure.
type Result struct {
	Charges Vector
	Trace   Trace
}

// AssignAll runs Assign on every view concurrently. The table is shared by
// all of them. Results are in the order of views.
func AssignAll(views []topology.View, p *param.Table, opts ...Option) []Result {
	res := make([]Result, len(views))

	var wg sync.WaitGroup
	for k, v := range views {
		wg.Add(1)
		go func(k int, v topology.View) {
			defer wg.Done()
			res[k].Charges, res[k].Trace = Assign(v, p, opts...)
		}(k, v)
	}
	wg.Wait()

	return res
}
