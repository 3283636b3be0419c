// Package synth searches for a query that turns example input tables into
// a target example output table.
//
// The search has three parts:
//   - ExtractLeaves derives the depth-0 vocabulary (columns, constants,
//     query vectors) from the first input table.
//   - Enumerator grows candidate trees capability by capability, memoized
//     on (depth, capability) and pruned by vector/scalar compatibility.
//   - Synthesizer deepens one level at a time, wraps every candidate in a
//     projection of the primary table's columns, then translates and
//     executes it and checks the result against the target.
//
// CRITICAL: An Enumerator and its memo belong to exactly one synthesis
// call. Nothing is shared across calls or goroutines.
package synth
