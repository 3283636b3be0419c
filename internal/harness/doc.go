// Package harness runs examples end to end and checks their expectations.
//
// Each run gets a fresh in-memory SQLite store, the SQLite translator, and a
// fixed run ID taken from the example, so the same example always produces
// the same Result. Golden reports (see RunWithGolden) snapshot a run as
// canonical JSON.
//
// Only deterministic fields are snapshotted. Elapsed time is never recorded,
// and solution counts are left out because ties in an ORDER BY key may be
// broken differently by different SQLite builds.
package harness
