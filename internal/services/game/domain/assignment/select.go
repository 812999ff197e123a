package assignment

import "math/rand"

// selectMode parameterizes the shared target-selection core.
//
// Full assignment balances strictly: the least-hunted candidates win and
// ties break randomly. Incremental repair is greedier: it honors the chain
// of succession first, then prefers candidates nobody hunts yet, then falls
// back to a uniform pick. Both call sites share this one implementation so
// the tie rules cannot drift apart.
type selectMode int

const (
	strictBalance selectMode = iota
	tieredPreference
)

// pickTarget selects one target among candidates.
//
// inherit names the victim's former target for chain-of-succession repair;
// it is only honored in tieredPreference mode and only when it is still a
// valid candidate. candidates must be non-empty.
func pickTarget(rng *rand.Rand, candidates []Member, indegree map[string]int, mode selectMode, inherit string) Member {
	switch mode {
	case tieredPreference:
		if inherit != "" {
			for _, c := range candidates {
				if c.ID == inherit {
					return c
				}
			}
		}
		var unhunted []Member
		for _, c := range candidates {
			if indegree[c.ID] == 0 {
				unhunted = append(unhunted, c)
			}
		}
		if len(unhunted) > 0 {
			return unhunted[rng.Intn(len(unhunted))]
		}
		return candidates[rng.Intn(len(candidates))]

	default:
		min := indegree[candidates[0].ID]
		for _, c := range candidates[1:] {
			if indegree[c.ID] < min {
				min = indegree[c.ID]
			}
		}
		tied := make([]Member, 0, len(candidates))
		for _, c := range candidates {
			if indegree[c.ID] == min {
				tied = append(tied, c)
			}
		}
		return tied[rng.Intn(len(tied))]
	}
}
