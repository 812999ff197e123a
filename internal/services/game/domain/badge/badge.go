// Package badge holds the badge catalog and its pure eligibility rules.
//
// Eligibility is side-effect-free: the verification workflow evaluates the
// catalog against the just-updated in-memory population and persists or
// announces the newly earned badges itself.
package badge

import "github.com/manhuntgame/manhunt/internal/services/game/domain/player"

// ID identifies one badge in the catalog.
type ID string

const (
	FirstBlood   ID = "first_blood"
	Marksman     ID = "marksman"      // 3 verified kills
	Executioner  ID = "executioner"   // 5 verified kills
	OnAStreak    ID = "on_a_streak"   // 3 kills without dying
	Unstoppable  ID = "unstoppable"   // 5 kills without dying
	BountyHunter ID = "bounty_hunter" // first bounty kill
	PurgeReaper  ID = "purge_reaper"  // 3 purge-mode kills
)

// ActionContext describes the elimination that triggered the evaluation.
type ActionContext struct {
	// KillerID is the player credited with the elimination.
	KillerID string
	// FirstKillOfGame marks the game's first verified elimination.
	FirstKillOfGame bool
	// BountyKill marks an elimination of the active bounty target.
	BountyKill bool
	// PurgeKill marks an elimination verified during purge mode.
	PurgeKill bool
}

// Eligible returns the badges p qualifies for in the given context,
// excluding badges the player already holds. The order is stable.
func Eligible(p player.Player, ctx ActionContext) []ID {
	held := make(map[string]struct{}, len(p.Badges))
	for _, b := range p.Badges {
		held[b] = struct{}{}
	}

	var earned []ID
	award := func(id ID, qualifies bool) {
		if !qualifies {
			return
		}
		if _, ok := held[string(id)]; ok {
			return
		}
		earned = append(earned, id)
	}

	isKiller := ctx.KillerID == p.ID
	award(FirstBlood, isKiller && ctx.FirstKillOfGame)
	award(Marksman, p.KillCount >= 3)
	award(Executioner, p.KillCount >= 5)
	award(OnAStreak, p.StreakCount >= 3)
	award(Unstoppable, p.StreakCount >= 5)
	award(BountyHunter, isKiller && ctx.BountyKill)
	award(PurgeReaper, p.PurgeKillCount >= 3)
	return earned
}
