// Package domain defines the core business entities for Crosscheck.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A candidate document retrieved from the vector store
//   - EnrichedDocument: The canonical per-query view of a candidate
//   - Cluster: A similarity grouping of candidates
//   - CandidatePair: A pair of candidates queued for conflict analysis
//   - ConflictResult: The judgment produced for one analysed pair
//   - Budget: The per-query ceiling on expensive analysis work
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
