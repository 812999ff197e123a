// Package player holds the player model and its lifecycle transitions.
package player

import (
	"strings"
	"time"

	apperrors "github.com/manhuntgame/manhunt/internal/platform/errors"
)

var (
	// ErrNameRequired indicates a missing player name.
	ErrNameRequired = apperrors.New(apperrors.CodePlayerNameRequired, "player name is required")
	// ErrGroupRequired indicates a missing group label.
	ErrGroupRequired = apperrors.New(apperrors.CodePlayerGroupRequired, "player group is required")
	// ErrAlreadyEliminated indicates an elimination attempt on a dead player.
	ErrAlreadyEliminated = apperrors.New(apperrors.CodePlayerAlreadyEliminated, "player is already eliminated")
)

// Player is one participant in a game.
//
// Group is immutable for the game's duration and drives the no-intra-group
// targeting rule. Target is empty while the game has not started, after
// removal, and in the transient single-group-remaining state.
type Player struct {
	ID    string
	Name  string
	Group string

	Alive  bool
	InGame bool

	Target     string
	AssignedAt *time.Time

	KillCount       int
	StreakCount     int
	BountyKillCount int
	PurgeKillCount  int

	EliminatedBy  string
	EliminatedAt  *time.Time
	DeathLocation string

	Badges []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New validates and creates a joining player. The player starts alive and
// in-game with no target; edges are only handed out by the assignment
// engine once the game starts.
func New(id, name, group string, now time.Time) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, ErrNameRequired
	}
	group = strings.TrimSpace(group)
	if group == "" {
		return Player{}, ErrGroupRequired
	}
	return Player{
		ID:        id,
		Name:      name,
		Group:     group,
		Alive:     true,
		InGame:    true,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Eliminate marks the player dead exactly once and drops its target edge.
func (p *Player) Eliminate(by, location string, at time.Time) error {
	if !p.Alive {
		return ErrAlreadyEliminated
	}
	stamp := at.UTC()
	p.Alive = false
	p.Target = ""
	p.AssignedAt = nil
	p.EliminatedBy = by
	p.DeathLocation = location
	p.EliminatedAt = &stamp
	p.UpdatedAt = stamp
	return nil
}

// RecordKill bumps the killer's counters for one verified elimination.
func (p *Player) RecordKill(bounty, purge bool, at time.Time) {
	p.KillCount++
	p.StreakCount++
	if bounty {
		p.BountyKillCount++
	}
	if purge {
		p.PurgeKillCount++
	}
	p.UpdatedAt = at.UTC()
}

// NormalizeName canonicalizes a player name for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchesName reports whether the player's name equals name, ignoring case
// and surrounding whitespace.
func (p Player) MatchesName(name string) bool {
	return NormalizeName(p.Name) == NormalizeName(name)
}
