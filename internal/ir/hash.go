package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTable = "vecsynth/table/v1"
	DomainQuery = "vecsynth/query/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TableDigest computes a content-addressed ID for a table.
// Row order and column order are part of the digest; two tables that the
// oracle considers equivalent may still have different digests.
func TableDigest(t *Table) (string, error) {
	canonical, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("TableDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTable, canonical), nil
}

// QueryID computes a content-addressed ID for a translated query.
// The dialect participates so the same AST rendered for SQLite and for
// PostgreSQL gets distinct IDs.
func QueryID(dialect, queryText string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"dialect": dialect,
		"query":   queryText,
	})
	if err != nil {
		return "", fmt.Errorf("QueryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// MustQueryID is like QueryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryID(dialect, queryText string) string {
	id, err := QueryID(dialect, queryText)
	if err != nil {
		panic(err)
	}
	return id
}
