// Package trace is the logging layer of the interpreter: structured span and
// point events for pipeline phases, per-file diagnose work and evaluator
// activity. Live-block events carry the attempt number and the fault code.
//
//	resilient run --trace=- --trace-level=debug main.rsl
//	resilient run --trace-level=error main.rsl   # dump only if the run dies
//
// Tracers: Nop, StreamTracer (text or NDJSON as events happen), RingTracer
// (last N events in memory) and MultiTracer (fan out).
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", 0)
//	defer span.End("")
package trace
