// Package cfg runs the steps of a charge assignment session. A step lists
// bci_table and bci calculations, each with its own configuration file.
package cfg

import (
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// Cfg lists the calculations of every step. Types[s][r] is bci or bci_table
// and Files[s][r] is the TOML file configuring it. A typical session checks
// the parameter file with bci_table in a first step and assigns charges with
// bci in the next one.
type Cfg struct {
	Types [][]string `toml:"types"`
	Files [][]string `toml:"files"`
}

// New reads the TOML file at path. Every step must name as many files as
// calculations. The calculation names are checked by Start.
func New(path string) (Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return Cfg{}, err
	}
	defer f.Close()

	var c Cfg
	err = toml.NewDecoder(f).Decode(&c)
	if err != nil {
		return Cfg{}, fmt.Errorf("%s: %w", path, err)
	}

	if len(c.Files) != len(c.Types) {
		return Cfg{}, fmt.Errorf("%d steps of files for %d steps of calculations",
			len(c.Files), len(c.Types))
	}

	for step, files := range c.Files {
		if len(files) != len(c.Types[step]) {
			return Cfg{}, fmt.Errorf("step %d: %d files for %d calculations",
				step, len(files), len(c.Types[step]))
		}
	}

	return c, nil
}

// Start runs the steps one after the other. The calculations of a step run in
// parallel, e.g. Types: [["bci", "bci"]] assigns two sets of structures at
// once.
//
// It is a thread blocking method. If an error occurs for a specific
// calculation, the calculation will stop and log the error but the method won't
// stop. It returns the number of calculations that failed.
func (c Cfg) Start(log *zap.Logger) int {
	var (
		wg     sync.WaitGroup
		mux    sync.Mutex
		failed int
	)

	launch := func(step, rtn int, name string) {
		err := Launch(name, c.Files[step][rtn], log)
		if err != nil {
			log.Error("calculation failed",
				zap.Int("step", step),
				zap.Int("routine", rtn),
				zap.String("type", name),
				zap.Error(err))
			mux.Lock()
			failed++
			mux.Unlock()
		}
	}

	for step, types := range c.Types {
		if len(types) == 0 {
			continue
		}

		for rtn, name := range types[1:] { // For each calculation
			wg.Add(1)
			go func(step, rtn int, name string) {
				defer wg.Done()
				launch(step, rtn, name)
			}(step, rtn+1, name)
		}

		launch(step, 0, types[0])
		wg.Wait()
	}

	return failed
}
