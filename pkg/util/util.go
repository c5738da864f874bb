// Package util contains some methods that can be used by every other package.
package util

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml"
)

// Write creates the output file according to a specific scheme. It writes the
// date, parses the structure in a TOML format and writes it. This method
// returns the file for further writing. It must be closed at the end of the
// calculation.
func Write(path string, structure interface{}) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(f, "Date: %v\n", time.Now().Format("2006-01-02 15:04:05 -0700 MST"))

	enc := toml.NewEncoder(f)
	err = enc.Encode(structure)
	if err != nil {
		f.Close()
		return nil, err
	}

	f.Write([]byte{'\n'})
	return f, nil
}

// FormatFloat formats v with a fixed number of decimals.
func FormatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
