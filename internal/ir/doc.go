// Package ir provides the data model shared by every vecsynth package:
// typed columns, example tables, and the sealed cell value variants.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// data model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Tables are immutable after NewTable; accessors hand out copies
//   - Every row has exactly one cell per column
//   - A non-null cell under a vector column is always a Vector
//   - Vectors copy on the way in and on the way out
//   - Canonical JSON (MarshalCanonical) is the only encoding used for hashing
package ir
