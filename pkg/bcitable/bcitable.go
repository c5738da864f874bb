// Package bcitable checks a parameter file and writes the table it describes,
// implicit reverse increments included, at the requested precision.
package bcitable

import (
	"fmt"
	"os"

	"github.com/kpotier/molcharge/pkg/param"
	"github.com/kpotier/molcharge/pkg/util"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// Type is name of the calculation.
var Type = "bci_table"

// BCITable is a structure containing the parameters that can be parsed from a
// TOML configuration file. This structure can be instanced through the New
// method.
type BCITable struct {
	FileParams string  `toml:"bci_table.file_params" validate:"required"`
	FileOut    string  `toml:"bci_table.file_out" validate:"required"`
	Precision  float64 `toml:"bci_table.precision" validate:"gte=0,lt=1"`

	log *zap.Logger
}

// New returns an instance of the BCITable structure. It reads and parses the
// configuration file given in argument. The file must be a TOML file.
func New(path string, log *zap.Logger) (*BCITable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var table BCITable
	dec := toml.NewDecoder(f)
	err = dec.Decode(&table)
	if err != nil {
		return nil, err
	}

	err = util.Validate(&table)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}
	table.log = log.With(zap.String("calculation", Type))
	return &table, nil
}

// Start performs the calculation. It is a thread blocking method. This
// calculation only use one thread.
func (b *BCITable) Start() error {
	tbl, err := param.LoadFile(b.FileParams, param.DecimalsFor(b.Precision))
	if err != nil {
		return fmt.Errorf("LoadFile: %w", err)
	}

	out, err := util.Write(b.FileOut, b)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	_, err = tbl.WriteTo(out)
	if err != nil {
		return fmt.Errorf("WriteTo: %w", err)
	}

	b.log.Info("parameter table written",
		zap.String("file", b.FileOut),
		zap.Int("charges", tbl.Records(param.Charge)),
		zap.Int("bci12", tbl.Records(param.BCI12)),
		zap.Int("bci13", tbl.Records(param.BCI13)))
	return nil
}
