// Package storage defines persistence interfaces for the game service.
//
// It covers the player roster with its hunt-graph edges, the singleton
// game state, proof review records, and operational telemetry.
// Implementations (e.g., SQLite) live in subpackages.
//
// Common error types:
//   - ErrNotFound: requested record is missing
//   - ErrNameTaken: conflict registering a duplicate player name
//   - ErrStaleGeneration: batch built against outdated game state
//   - ErrVictimAlreadyEliminated: lost race eliminating a player
package storage
