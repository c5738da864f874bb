package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	c, err := New(writeFile(t, dir, "ok.toml", `
types = [["bci_table"], ["bci", "bci"]]
files = [["table.toml"], ["a.toml", "b.toml"]]
`))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"bci_table"}, {"bci", "bci"}}, c.Types)

	_, err = New(writeFile(t, dir, "steps.toml", "types = [[\"bci\"]]\nfiles = []\n"))
	assert.ErrorContains(t, err, "0 steps of files for 1 steps of calculations")

	_, err = New(writeFile(t, dir, "routines.toml", "types = [[\"bci\", \"bci\"]]\nfiles = [[\"a\"]]\n"))
	assert.ErrorContains(t, err, "step 0: 1 files for 2 calculations")

	_, err = New(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestLaunchUnknown(t *testing.T) {
	err := Launch("no_pbc", "x.toml", zap.NewNop())
	assert.ErrorContains(t, err, "calculation `no_pbc` doesn't exist")
}

func TestLaunchBadConfig(t *testing.T) {
	err := Launch("bci", filepath.Join(t.TempDir(), "missing.toml"), zap.NewNop())
	assert.ErrorContains(t, err, "bci: New:")
}

func TestStart(t *testing.T) {
	dir := t.TempDir()
	pars := writeFile(t, dir, "ch2.pars", "CHARGE C1 -0.20\nCHARGE H1 0.05\nBCI-12 C1 H1 0.02\n")
	top := writeFile(t, dir, "ch2.toml", "types = [\"C1\", \"H1\", \"H1\"]\nbonds = [[0, 1], [0, 2]]\n")

	table := writeFile(t, dir, "table.toml", fmt.Sprintf(
		"[bci_table]\nfile_params = %q\nfile_out = %q\n", pars, filepath.Join(dir, "table.out")))
	charges := writeFile(t, dir, "charges.toml", fmt.Sprintf(
		"[bci]\nfile_params = %q\nfiles_topology = [%q]\nfiles_out = [%q]\n", pars, top, filepath.Join(dir, "ch2.out")))
	broken := writeFile(t, dir, "broken.toml", fmt.Sprintf(
		"[bci]\nfile_params = %q\nfiles_topology = [%q]\nfiles_out = [%q]\n",
		filepath.Join(dir, "missing.pars"), top, filepath.Join(dir, "broken.out")))

	c := Cfg{
		Types: [][]string{{"bci_table", "bci"}, {}, {"bci", "unknown"}},
		Files: [][]string{{table, charges}, {}, {broken, table}},
	}

	core, logs := observer.New(zap.ErrorLevel)
	failed := c.Start(zap.New(core))

	assert.Equal(t, 2, failed)
	assert.Equal(t, 2, logs.FilterMessage("calculation failed").Len())
	assert.FileExists(t, filepath.Join(dir, "table.out"))
	assert.FileExists(t, filepath.Join(dir, "ch2.out"))
	assert.NoFileExists(t, filepath.Join(dir, "broken.out"))
}
