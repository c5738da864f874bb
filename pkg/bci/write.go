package bci

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kpotier/molcharge/pkg/charge"
	"github.com/kpotier/molcharge/pkg/topology"
	"github.com/kpotier/molcharge/pkg/util"
	"github.com/kpotier/molcharge/pkg/xyz"
)

// write writes the charges of one structure into a file. Coordinates are in
// angstrom, charges in electron.
func (b *BCI) write(path string, top topology.View, s *xyz.Structure, r charge.Result) error {
	out, err := util.Write(path, b)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	b.writeCharges(w, top, s, r)
	return w.Flush()
}

func (b *BCI) writeCharges(w io.Writer, top topology.View, s *xyz.Structure, r charge.Result) {
	if s != nil {
		fmt.Fprintln(w, "index type x y z charge")
	} else {
		fmt.Fprintln(w, "index type charge")
	}

	for i, q := range r.Charges {
		fmt.Fprintf(w, "%d %s ", i, top.Type(i))
		if s != nil {
			p := s.Positions[i]
			fmt.Fprintf(w, "%g %g %g ", p[0], p[1], p[2])
		}
		fmt.Fprintln(w, util.FormatFloat(q, b.decimals))
	}

	if s != nil && s.Periodic() {
		fmt.Fprint(w, "# cell")
		for _, v := range cellValues(s.Cell) {
			fmt.Fprintf(w, " %g", v)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "# total %s\n", util.FormatFloat(r.Trace.Total, b.decimals))
	fmt.Fprintf(w, "# base %s\n", util.FormatFloat(r.Trace.Base, b.decimals))
	fmt.Fprintf(w, "# bci12 applied %d missing %d\n", r.Trace.BondApplied, r.Trace.BondMissing)
	fmt.Fprintf(w, "# bci13 applied %d missing %d\n", r.Trace.AngleApplied, r.Trace.AngleMissing)
}
