// Package assignment builds and repairs the directed hunt graph over the
// active player population.
//
// Every alive, in-game player carries at most one outgoing target edge.
// Edges never point inside the assassin's own group, mutual pairs are
// avoided whenever an alternative exists, and incoming-edge counts are kept
// as even as the group layout allows.
//
// # Determinism
//
// Every entry point is deterministic with respect to its seed. Given the
// same member slice (including order and current edges) and the same seed,
// the engine produces the same result. Production callers draw seeds from
// crypto/rand; tests pass fixed seeds.
package assignment

import (
	"sort"

	apperrors "github.com/manhuntgame/manhunt/internal/platform/errors"
)

var (
	// ErrInsufficientPlayers indicates fewer than two active players.
	ErrInsufficientPlayers = apperrors.New(apperrors.CodeInsufficientPlayers, "at least two active players are required")
	// ErrInsufficientGroups indicates every active player shares one group,
	// so no valid cross-group target exists for anyone.
	ErrInsufficientGroups = apperrors.New(apperrors.CodeInsufficientGroups, "active players must span at least two groups")
)

// Member is the engine's view of one alive, in-game player.
type Member struct {
	ID     string
	Group  string
	Target string // current outgoing edge, empty when unassigned
}

// Assignment is the outcome of a full-graph build.
type Assignment struct {
	// Targets maps assassin id to assigned target id.
	Targets map[string]string
	// Unassigned lists members left without any valid target, sorted by id.
	// A populated Unassigned is a reportable condition, not a failure.
	Unassigned []string
}

// InDegrees recomputes the assassin-count view from the live edge set.
//
// The count is always derived on demand rather than cached so a partially
// applied batch can never leave a stale counter behind.
func InDegrees(members []Member) map[string]int {
	counts := make(map[string]int, len(members))
	for _, m := range members {
		counts[m.ID] = 0
	}
	for _, m := range members {
		if m.Target == "" {
			continue
		}
		if _, tracked := counts[m.Target]; tracked {
			counts[m.Target]++
		}
	}
	return counts
}

// GroupCount returns the number of distinct groups among members.
func GroupCount(members []Member) int {
	groups := make(map[string]struct{}, len(members))
	for _, m := range members {
		groups[m.Group] = struct{}{}
	}
	return len(groups)
}

// sortedIDs returns ids in lexicographic order for stable reporting.
func sortedIDs(ids []string) []string {
	sort.Strings(ids)
	return ids
}
