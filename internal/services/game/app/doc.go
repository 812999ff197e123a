// Package app orchestrates game commands over the domain engine and storage.
//
// Every command follows the same shape: read a consistent snapshot of the
// roster and the singleton game state, make the decision in memory with the
// domain packages, and persist the result as one generation-guarded batch.
// A batch rejected for a stale generation is recomputed once against a
// fresh snapshot before the error surfaces.
package app
