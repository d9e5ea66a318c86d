package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_Single(t *testing.T) {
	cfg, lvl, err := parseArgs([]string{"-listen", "127.0.0.1:0", "-class", "hl", "-flow-control-noise"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, logger.InfoLevel, lvl)
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, simulator.DeviceConfig{
		Name:             "julabo",
		Class:            "hl",
		Listen:           "127.0.0.1:0",
		FlowControlNoise: true,
	}, cfg.Devices[0])
}

func TestParseArgs_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("devices:\n- name: a\n  class: JulaboCF\n  listen: '127.0.0.1:0'\n"), 0o600))

	cfg, lvl, err := parseArgs([]string{"-config", path, "-log-level", "debug"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, logger.DebugLevel, lvl)
	assert.Equal(t, "a", cfg.Devices[0].Name)
}

func TestParseArgs_Errors(t *testing.T) {
	_, _, err := parseArgs([]string{"-class", "JulaboFC"}, io.Discard)
	require.Error(t, err)

	_, _, err = parseArgs([]string{"-log-level", "loud"}, io.Discard)
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, run(ctx, []string{"-listen", "127.0.0.1:0", "-log-level", "error"}, io.Discard))
}
