package bcitable

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kpotier/molcharge/pkg/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setup(t *testing.T, params string, precision float64) (cfg, out string) {
	t.Helper()
	dir := t.TempDir()
	pars := filepath.Join(dir, "in.pars")
	require.NoError(t, os.WriteFile(pars, []byte(params), 0o644))

	out = filepath.Join(dir, "table.out")
	cfg = filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(fmt.Sprintf(
		"[bci_table]\nfile_params = %q\nfile_out = %q\nprecision = %g\n", pars, out, precision)), 0o644))
	return cfg, out
}

func TestStart(t *testing.T) {
	cfg, out := setup(t, "BCI-12 O1 H2 -0.0512 # hydroxyl\nCHARGE O1 -0.8\ncharge O1 -0.75\n", 0.01)

	core, logs := observer.New(zap.InfoLevel)
	b, err := New(cfg, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, b.Start())

	written := logs.FilterMessage("parameter table written").All()
	require.Len(t, written, 1)
	assert.Equal(t, int64(1), written[0].ContextMap()["charges"])
	assert.Equal(t, int64(1), written[0].ContextMap()["bci12"])
	assert.Equal(t, int64(0), written[0].ContextMap()["bci13"])

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	s := string(content)
	assert.True(t, strings.HasPrefix(s, "Date: "))
	assert.True(t, strings.HasSuffix(s, `
CHARGE O1 -0.75
BCI-12 H2 O1 0.05
BCI-12 O1 H2 -0.05
`), s)
}

func TestStartInvalidParameters(t *testing.T) {
	cfg, out := setup(t, "CHARGE O1\n", 0.001)

	b, err := New(cfg, nil)
	require.NoError(t, err)

	err = b.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, param.ErrArityMismatch))

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[bci_table]\nfile_params = \"x\"\n"), 0o644))

	_, err := New(cfg, nil)
	assert.ErrorContains(t, err, "bci_table.file_out is required")

	_, err = New(filepath.Join(dir, "missing.toml"), nil)
	assert.Error(t, err)
}
