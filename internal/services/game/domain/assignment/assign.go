package assignment

import "math/rand"

// AssignAll computes a complete target assignment for the population.
//
// It runs at game start and when purge mode is deactivated. Members are
// visited in a randomized order so early-processed players hold no
// systematic advantage; each assassin receives a cross-group target with
// the lowest current in-degree, with ties broken randomly. A candidate that
// already targets the assassin is skipped unless it is the only option
// left: mutual pairs are a last resort, not forbidden absolutely.
//
// Existing Target edges on members are ignored; the graph is rebuilt from
// scratch.
func AssignAll(members []Member, seed int64) (Assignment, error) {
	if len(members) < 2 {
		return Assignment{}, ErrInsufficientPlayers
	}
	if GroupCount(members) < 2 {
		return Assignment{}, ErrInsufficientGroups
	}

	rng := rand.New(rand.NewSource(seed))

	order := make([]Member, len(members))
	copy(order, members)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	targets := make(map[string]string, len(members))
	indegree := make(map[string]int, len(members))
	for _, m := range members {
		indegree[m.ID] = 0
	}

	var unassigned []string
	for _, assassin := range order {
		candidates := make([]Member, 0, len(members))
		for _, c := range members {
			if c.ID == assassin.ID || c.Group == assassin.Group {
				continue
			}
			candidates = append(candidates, c)
		}
		if len(candidates) == 0 {
			unassigned = append(unassigned, assassin.ID)
			continue
		}

		nonMutual := make([]Member, 0, len(candidates))
		for _, c := range candidates {
			if targets[c.ID] == assassin.ID {
				continue
			}
			nonMutual = append(nonMutual, c)
		}
		if len(nonMutual) > 0 {
			candidates = nonMutual
		}

		chosen := pickTarget(rng, candidates, indegree, strictBalance, "")
		targets[assassin.ID] = chosen.ID
		indegree[chosen.ID]++
	}

	rebalance(members, targets, indegree, false)
	rebalance(members, targets, indegree, true)

	return Assignment{
		Targets:    targets,
		Unassigned: sortedIDs(unassigned),
	}, nil
}

// rebalance repairs in-degree imbalance left by the greedy pass.
//
// Skipping mutual candidates can force a late assassin onto a target that
// is already hunted twice while another member goes unhunted. Each move
// redirects one edge from an overloaded target to a strictly less-hunted
// legal candidate, so the total imbalance shrinks on every iteration and
// the loop terminates. The first call keeps the mutual-pair rule; the
// second relaxes it for graphs where no other move exists.
func rebalance(members []Member, targets map[string]string, indegree map[string]int, allowMutual bool) {
	for {
		moved := false
		for _, assassin := range members {
			targetID, ok := targets[assassin.ID]
			if !ok {
				continue
			}
			for _, c := range members {
				if c.ID == assassin.ID || c.ID == targetID || c.Group == assassin.Group {
					continue
				}
				if indegree[c.ID]+1 >= indegree[targetID] {
					continue
				}
				if !allowMutual && targets[c.ID] == assassin.ID {
					continue
				}
				targets[assassin.ID] = c.ID
				indegree[targetID]--
				indegree[c.ID]++
				moved = true
				break
			}
		}
		if !moved {
			return
		}
	}
}

// ReassignAfterPurge rebuilds the full graph when purge mode deactivates.
//
// Purge play suspends target edges entirely, so the rebuild starts from an
// empty edge set like AssignAll. Selection runs in tiered-preference mode:
// unhunted candidates first, then a uniform pick. The stricter
// min-in-degree rule is reserved for game start, where the population is
// at its largest and imbalance compounds the longest.
func ReassignAfterPurge(members []Member, seed int64) (Assignment, error) {
	if len(members) < 2 {
		return Assignment{}, ErrInsufficientPlayers
	}
	if GroupCount(members) < 2 {
		return Assignment{}, ErrInsufficientGroups
	}

	rng := rand.New(rand.NewSource(seed))

	order := make([]Member, len(members))
	copy(order, members)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	targets := make(map[string]string, len(members))
	indegree := make(map[string]int, len(members))
	for _, m := range members {
		indegree[m.ID] = 0
	}

	var unassigned []string
	for _, assassin := range order {
		candidates := make([]Member, 0, len(members))
		for _, c := range members {
			if c.ID == assassin.ID || c.Group == assassin.Group {
				continue
			}
			candidates = append(candidates, c)
		}
		if len(candidates) == 0 {
			unassigned = append(unassigned, assassin.ID)
			continue
		}

		chosen := pickTarget(rng, candidates, indegree, tieredPreference, "")
		targets[assassin.ID] = chosen.ID
		indegree[chosen.ID]++
	}

	return Assignment{
		Targets:    targets,
		Unassigned: sortedIDs(unassigned),
	}, nil
}
