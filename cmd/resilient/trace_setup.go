package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"resilient/internal/trace"
)

// traceSettings is the tracer a command runs with.
type traceSettings struct {
	cfg trace.Config
	// dumpOnFatal dumps the ring when a run ends in a fatal fault.
	dumpOnFatal bool
}

// readTraceSettings maps the persistent trace flags to a tracer config.
// --trace alone means phase level. A trace file with ring storage keeps
// both. The error level records everything in memory and only shows it
// when a run dies.
func readTraceSettings(flags *pflag.FlagSet) (traceSettings, error) {
	var s traceSettings
	output, err := flags.GetString("trace")
	if err != nil {
		return s, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return s, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return s, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	if s.cfg.RingSize, err = flags.GetInt("trace-ring-size"); err != nil {
		return s, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	if s.cfg.Heartbeat, err = flags.GetDuration("trace-heartbeat"); err != nil {
		return s, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	if s.dumpOnFatal, err = flags.GetBool("trace-dump"); err != nil {
		return s, fmt.Errorf("failed to get trace-dump flag: %w", err)
	}

	if s.cfg.Level, err = trace.ParseLevel(levelStr); err != nil {
		return s, err
	}
	if s.cfg.Mode, err = trace.ParseMode(modeStr); err != nil {
		return s, err
	}
	s.cfg.OutputPath = output

	switch {
	case s.cfg.Level == trace.LevelError:
		s.cfg.Level = trace.LevelDebug
		s.cfg.Mode = trace.ModeRing
		s.cfg.OutputPath = ""
		s.dumpOnFatal = true
	case s.cfg.Level == trace.LevelOff && output != "":
		s.cfg.Level = trace.LevelPhase
	}
	if s.cfg.OutputPath != "" && s.cfg.Mode == trace.ModeRing {
		s.cfg.Mode = trace.ModeBoth
	}
	return s, nil
}

// activeTrace is what setupTracing installed for the running command.
var activeTrace traceSettings

// setupTracing installs the tracer on the command context and returns a
// cleanup that stops the heartbeat and flushes the tracer.
func setupTracing(cmd *cobra.Command) (func(), error) {
	s, err := readTraceSettings(cmd.Root().PersistentFlags())
	if err != nil {
		return nil, err
	}
	activeTrace = s
	if s.cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, s.cfg.Heartbeat)
	return func() {
		heartbeat.Stop()
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpTraceRing writes the ring tracer's events to w, if one is active.
func dumpTraceRing(cmd *cobra.Command, w io.Writer) error {
	var ring *trace.RingTracer
	switch t := trace.FromContext(cmd.Context()).(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		ring = t.Ring()
	}
	if ring == nil {
		return nil
	}
	fmt.Fprintln(w, "== trace ==")
	return ring.Dump(w, trace.FormatText)
}
