// Package random provides cryptographic seed generation helpers.
//
// Assignment and reassignment decisions are deterministic with respect to
// an int64 seed; production callers draw that seed here so fairness-critical
// shuffles are not predictable, while tests pass fixed seeds.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
