// Package diag defines the diagnostic model shared by all pipeline phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by the
//     lexer, parser, type checker and the evaluator's live-block supervisor.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// Package diag performs no terminal formatting or IO. Rendering lives in
// internal/diagfmt; orchestration lives in internal/driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Phase – pipeline stage that produced it (Lex, Parse, TypeCheck, Runtime).
//   - Severity – Info, Warning, Error.
//   - Code – compact numeric kind with a stable string form (LEX1001, SYN2001,
//     SEM3001, RUN4001).
//   - Message – short, human oriented text.
//   - Primary – the source.Span pointing at the issue.
//   - Notes – optional secondary spans.
//   - Attempt – 1-based live-block attempt for runtime diagnostics, 0 otherwise.
//
// Producers call Reporter.Report directly or chain a ReportBuilder.
// BagReporter aggregates into a Bag, which supports limits, sorting and
// deduplication.
package diag
