package assignment

import (
	"math/rand"
	"sort"
)

// OutcomeKind tags the terminal shape of a graph repair.
type OutcomeKind int

const (
	// Repaired means the graph was patched and play continues.
	Repaired OutcomeKind = iota
	// GameOver means exactly one eligible player remains.
	GameOver
	// SingleGroupRemaining means all survivors share one group: no valid
	// cross-group edge exists, every target was cleared, and the game can
	// produce no further graph-driven eliminations. Whether this counts as
	// a win is the caller's call (the class-domination check is a separate,
	// manually triggered admin operation).
	SingleGroupRemaining
)

// Outcome reports the edge changes produced by one repair.
type Outcome struct {
	Kind     OutcomeKind
	WinnerID string
	// Reassigned maps assassin id to the replacement target id.
	Reassigned map[string]string
	// Cleared lists members whose target edge must be set to none, sorted
	// by id. It covers the winner, terminal clearing, and assassins left
	// without a valid target.
	Cleared []string
	// Unassigned lists assassins that could not receive a replacement
	// target, sorted by id. Each also appears in Cleared.
	Unassigned []string
}

// OnEliminated repairs the hunt graph after one player's elimination.
//
// members is the pre-elimination alive population, victim included, with
// current edges. The victim's assassins are rerouted in stable id order:
// first to the victim's own former target (the chain of succession), then
// to any candidate nobody hunts yet, then uniformly at random. In purge
// mode the graph is left untouched; purge play deliberately suspends the
// one-target invariant.
//
// The caller owns persistence: marking the victim dead, applying the
// returned edge changes, and setting the winner must land in one atomic
// batch.
func OnEliminated(victimID string, members []Member, purgeMode bool, seed int64) Outcome {
	var victim Member
	remaining := make([]Member, 0, len(members))
	var assassins []Member
	for _, m := range members {
		if m.ID == victimID {
			victim = m
			continue
		}
		remaining = append(remaining, m)
		if m.Target == victimID {
			assassins = append(assassins, m)
		}
	}
	// Order does not affect correctness, only fairness; keep it stable.
	sort.Slice(assassins, func(i, j int) bool { return assassins[i].ID < assassins[j].ID })

	if purgeMode {
		return Outcome{Kind: Repaired}
	}

	if len(remaining) == 1 {
		winner := remaining[0]
		outcome := Outcome{Kind: GameOver, WinnerID: winner.ID}
		if winner.Target != "" {
			outcome.Cleared = []string{winner.ID}
		}
		return outcome
	}
	if len(remaining) == 0 {
		return Outcome{Kind: Repaired}
	}

	if GroupCount(remaining) < 2 {
		var cleared []string
		for _, m := range remaining {
			if m.Target != "" {
				cleared = append(cleared, m.ID)
			}
		}
		return Outcome{
			Kind:    SingleGroupRemaining,
			Cleared: sortedIDs(cleared),
		}
	}

	rng := rand.New(rand.NewSource(seed))

	// Live edge view: the victim's inbound edges are already dangling, and
	// the victim's own outbound edge died with it.
	edges := make(map[string]string, len(remaining))
	for _, m := range remaining {
		if m.Target != "" && m.Target != victimID {
			edges[m.ID] = m.Target
		}
	}
	indegree := make(map[string]int, len(remaining))
	for _, m := range remaining {
		indegree[m.ID] = 0
	}
	for _, target := range edges {
		if _, tracked := indegree[target]; tracked {
			indegree[target]++
		}
	}

	outcome := Outcome{Kind: Repaired, Reassigned: make(map[string]string, len(assassins))}
	for _, assassin := range assassins {
		candidates := make([]Member, 0, len(remaining))
		for _, c := range remaining {
			if c.ID == assassin.ID || c.Group == assassin.Group {
				continue
			}
			candidates = append(candidates, c)
		}
		if len(candidates) == 0 {
			outcome.Unassigned = append(outcome.Unassigned, assassin.ID)
			outcome.Cleared = append(outcome.Cleared, assassin.ID)
			continue
		}

		chosen := pickTarget(rng, candidates, indegree, tieredPreference, victim.Target)
		outcome.Reassigned[assassin.ID] = chosen.ID
		edges[assassin.ID] = chosen.ID
		indegree[chosen.ID]++
	}

	outcome.Cleared = sortedIDs(outcome.Cleared)
	outcome.Unassigned = sortedIDs(outcome.Unassigned)
	return outcome
}
