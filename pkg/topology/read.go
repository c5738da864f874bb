package topology

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml"
)

// file is the TOML layout of a topology file:
//
//	types = ["C1", "H1", "H1"]
//	bonds = [[0, 1], [0, 2]]
//
// Indices start at zero.
type file struct {
	Types []string `toml:"types"`
	Bonds [][]int  `toml:"bonds"`
}

// ReadFile reads the topology file at path.
func ReadFile(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read decodes a topology file and validates it with New.
func Read(r io.Reader) (*Topology, error) {
	var f file
	dec := toml.NewDecoder(r)
	err := dec.Decode(&f)
	if err != nil {
		return nil, err
	}

	bonds := make([]Pair, len(f.Bonds))
	for k, b := range f.Bonds {
		if len(b) != 2 {
			return nil, fmt.Errorf("bond %d has %d indices (expected 2)", k, len(b))
		}
		bonds[k] = Pair{I: b[0], J: b[1]}
	}

	return New(f.Types, bonds)
}
