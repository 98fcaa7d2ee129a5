package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resilient/internal/trace"
)

func traceFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("resilient", pflag.ContinueOnError)
	registerPersistentFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestReadTraceSettings(t *testing.T) {
	s, err := readTraceSettings(traceFlags(t))
	require.NoError(t, err)
	assert.Equal(t, trace.LevelOff, s.cfg.Level)
	assert.False(t, s.dumpOnFatal)

	s, err = readTraceSettings(traceFlags(t, "--trace=out.log"))
	require.NoError(t, err)
	assert.Equal(t, trace.LevelPhase, s.cfg.Level)
	assert.Equal(t, trace.ModeBoth, s.cfg.Mode)
	assert.Equal(t, "out.log", s.cfg.OutputPath)

	s, err = readTraceSettings(traceFlags(t, "--trace=-", "--trace-level=debug", "--trace-mode=stream"))
	require.NoError(t, err)
	assert.Equal(t, trace.LevelDebug, s.cfg.Level)
	assert.Equal(t, trace.ModeStream, s.cfg.Mode)
}

func TestReadTraceSettingsErrorLevelRecordsInMemory(t *testing.T) {
	s, err := readTraceSettings(traceFlags(t, "--trace-level=error", "--trace=out.log", "--trace-ring-size=64"))
	require.NoError(t, err)
	assert.Equal(t, trace.LevelDebug, s.cfg.Level)
	assert.Equal(t, trace.ModeRing, s.cfg.Mode)
	assert.Empty(t, s.cfg.OutputPath)
	assert.Equal(t, 64, s.cfg.RingSize)
	assert.True(t, s.dumpOnFatal)
}

func TestReadTraceSettingsRejectsUnknownValues(t *testing.T) {
	_, err := readTraceSettings(traceFlags(t, "--trace-level=loud"))
	assert.Error(t, err)
	_, err = readTraceSettings(traceFlags(t, "--trace-mode=disk"))
	assert.Error(t, err)
}
