// Package vm is the tree-walking evaluator. It executes a parsed file
// statement by statement on a single call stack, owns the environment chain
// and the static slot table, and runs every live block under a supervisor
// that snapshots bindings, retries recoverable faults a bounded number of
// times and resumes the surrounding code when the block is abandoned.
package vm
