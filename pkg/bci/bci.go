// Package bci computes the partial charges of one or several structures from
// charge and bond-charge increment parameters. All the structures share the
// same parameter file, which is loaded once.
package bci

import (
	"fmt"
	"os"

	"github.com/kpotier/molcharge/pkg/charge"
	"github.com/kpotier/molcharge/pkg/param"
	"github.com/kpotier/molcharge/pkg/topology"
	"github.com/kpotier/molcharge/pkg/util"
	"github.com/kpotier/molcharge/pkg/xyz"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// Type is name of the calculation.
var Type = "bci"

// BCI is a structure containing the parameters that can be parsed from a TOML
// configuration file. This structure can be instanced through the New method.
// FilesTopology, FilesXYZ and FilesOut are read in parallel: the n-th
// structure is described by the n-th element of each. FilesXYZ may be left
// empty, the output then has no coordinates.
type BCI struct {
	FileParams    string   `toml:"bci.file_params" validate:"required"`
	FilesTopology []string `toml:"bci.files_topology" validate:"required,dive,required"`
	FilesXYZ      []string `toml:"bci.files_xyz" validate:"omitempty,dive,required"`
	FilesOut      []string `toml:"bci.files_out" validate:"required,dive,required"`

	Precision float64 `toml:"bci.precision" validate:"gte=0,lt=1"`
	Workers   int     `toml:"bci.workers" validate:"gte=0"`

	decimals int
	log      *zap.Logger
}

// New returns an instance of the BCI structure. It reads and parses the
// configuration file given in argument. The file must be a TOML file.
func New(path string, log *zap.Logger) (*BCI, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bci BCI
	dec := toml.NewDecoder(f)
	err = dec.Decode(&bci)
	if err != nil {
		return nil, err
	}

	err = util.Validate(&bci)
	if err != nil {
		return nil, err
	}

	if len(bci.FilesOut) != len(bci.FilesTopology) {
		return nil, fmt.Errorf("length of FilesOut isn't equal to FilesTopology (%d vs %d)",
			len(bci.FilesOut), len(bci.FilesTopology))
	}

	if len(bci.FilesXYZ) != 0 && len(bci.FilesXYZ) != len(bci.FilesTopology) {
		return nil, fmt.Errorf("length of FilesXYZ isn't equal to FilesTopology (%d vs %d)",
			len(bci.FilesXYZ), len(bci.FilesTopology))
	}

	if log == nil {
		log = zap.NewNop()
	}
	bci.decimals = param.DecimalsFor(bci.Precision)
	bci.log = log.With(zap.String("calculation", Type))
	return &bci, nil
}

// Start performs the calculation. It is a thread blocking method. The
// structures are processed in parallel, one thread each, and every structure
// may use Workers threads on top of that.
func (b *BCI) Start() error {
	tbl, err := param.LoadFile(b.FileParams, b.decimals)
	if err != nil {
		return fmt.Errorf("LoadFile: %w", err)
	}
	b.log.Info("parameters loaded",
		zap.String("file", b.FileParams),
		zap.Int("decimals", tbl.Decimals()),
		zap.Int("charges", tbl.Records(param.Charge)),
		zap.Int("bci12", tbl.Records(param.BCI12)),
		zap.Int("bci13", tbl.Records(param.BCI13)))

	views := make([]topology.View, len(b.FilesTopology))
	structs := make([]*xyz.Structure, len(b.FilesTopology))
	for k, path := range b.FilesTopology {
		top, err := topology.ReadFile(path)
		if err != nil {
			return fmt.Errorf("ReadFile (structure %d): %w", k, err)
		}
		views[k] = top

		if len(b.FilesXYZ) == 0 {
			continue
		}

		s, err := xyz.ReadFile(b.FilesXYZ[k])
		if err != nil {
			return fmt.Errorf("xyz.ReadFile (structure %d): %w", k, err)
		}
		if s.Len() != top.Len() {
			return fmt.Errorf("structure %d: %d positions for %d atoms", k, s.Len(), top.Len())
		}
		structs[k] = s

		fields := []zap.Field{
			zap.Int("structure", k),
			zap.String("file", b.FilesXYZ[k]),
			zap.Bool("periodic", s.Periodic()),
		}
		if s.Periodic() {
			fields = append(fields, zap.Float64s("cell", cellValues(s.Cell)))
		}
		b.log.Info("positions loaded", fields...)
	}

	res := charge.AssignAll(views, tbl, charge.WithWorkers(b.Workers))

	for k, r := range res {
		b.logTrace(k, r.Trace)

		err := b.write(b.FilesOut[k], views[k], structs[k], r)
		if err != nil {
			return fmt.Errorf("write (structure %d): %w", k, err)
		}
	}

	return nil
}

func (b *BCI) logTrace(k int, tr charge.Trace) {
	log := b.log.With(zap.Int("structure", k), zap.String("topology", b.FilesTopology[k]))
	log.Info("charges assigned",
		zap.Float64("base", tr.Base),
		zap.Float64("after_bci12", tr.Bond),
		zap.Float64("after_bci13", tr.Angle),
		zap.Float64("total", tr.Total),
		zap.Int("bci12_applied", tr.BondApplied),
		zap.Int("bci12_missing", tr.BondMissing),
		zap.Int("bci13_applied", tr.AngleApplied),
		zap.Int("bci13_missing", tr.AngleMissing))

	if len(tr.Uncharged) != 0 {
		log.Warn("atom types without CHARGE entry start at zero", zap.Strings("types", tr.Uncharged))
	}
}

// cellValues flattens the cell vectors row by row.
func cellValues(c *[3][3]float64) []float64 {
	v := make([]float64, 0, 9)
	for _, row := range c {
		v = append(v, row[:]...)
	}
	return v
}
