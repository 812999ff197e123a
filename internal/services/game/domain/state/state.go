// Package state models the singleton game-wide state and its guarded
// lifecycle transitions.
package state

import (
	"strings"
	"time"

	apperrors "github.com/manhuntgame/manhunt/internal/platform/errors"
)

var (
	// ErrAlreadyStarted indicates a second start on a running game.
	ErrAlreadyStarted = apperrors.New(apperrors.CodeGameAlreadyStarted, "game is already started")
	// ErrNotStarted indicates an operation that needs a running game.
	ErrNotStarted = apperrors.New(apperrors.CodeGameNotStarted, "game is not started")
	// ErrAlreadyOver indicates an operation on a finished game.
	ErrAlreadyOver = apperrors.New(apperrors.CodeGameAlreadyOver, "game is already over")
	// ErrWinnerAlreadySet indicates a second winner declaration.
	ErrWinnerAlreadySet = apperrors.New(apperrors.CodeWinnerAlreadySet, "winner is already set")
	// ErrBountyTargetRequired indicates a bounty without a target name.
	ErrBountyTargetRequired = apperrors.New(apperrors.CodeBountyTargetRequired, "bounty target name is required")
)

// Bounty is an admin-announced prize on one player's head.
type Bounty struct {
	TargetName  string
	Prize       string
	Description string
	SetAt       time.Time
}

// State is the singleton game-wide state.
//
// Generation is an optimistic-concurrency counter: every persisted batch
// that touches the population or this record bumps it, and a batch built
// against a stale generation is rejected by the store.
type State struct {
	Started   bool
	PurgeMode bool
	JoinPIN   string

	WinnerID   string
	GameOverAt *time.Time

	Bounty *Bounty

	Generation int64
	UpdatedAt  time.Time
}

// Start flips the game to started. The assignment engine must have
// produced a full edge set before the caller persists this transition.
func (s *State) Start(pin string, now time.Time) error {
	if s.Started {
		return ErrAlreadyStarted
	}
	if s.WinnerID != "" {
		return ErrAlreadyOver
	}
	s.Started = true
	s.PurgeMode = false
	s.JoinPIN = strings.TrimSpace(pin)
	s.UpdatedAt = now.UTC()
	return nil
}

// End resets the record to its initial empty shape. The caller must clear
// every player's target edge in the same persisted batch.
func (s *State) End(now time.Time) error {
	if !s.Started {
		return ErrNotStarted
	}
	*s = State{
		Generation: s.Generation,
		UpdatedAt:  now.UTC(),
	}
	return nil
}

// TogglePurge flips purge mode on a running game and reports the new value.
func (s *State) TogglePurge(now time.Time) (bool, error) {
	if !s.Started {
		return false, ErrNotStarted
	}
	if s.WinnerID != "" {
		return false, ErrAlreadyOver
	}
	s.PurgeMode = !s.PurgeMode
	s.UpdatedAt = now.UTC()
	return s.PurgeMode, nil
}

// DeclareWinner records the terminal winner exactly once.
func (s *State) DeclareWinner(winnerID string, now time.Time) error {
	if s.WinnerID != "" {
		return ErrWinnerAlreadySet
	}
	stamp := now.UTC()
	s.WinnerID = winnerID
	s.GameOverAt = &stamp
	s.UpdatedAt = stamp
	return nil
}

// SetBounty places or replaces the active bounty.
func (s *State) SetBounty(targetName, prize, description string, now time.Time) error {
	targetName = strings.TrimSpace(targetName)
	if targetName == "" {
		return ErrBountyTargetRequired
	}
	s.Bounty = &Bounty{
		TargetName:  targetName,
		Prize:       prize,
		Description: description,
		SetAt:       now.UTC(),
	}
	s.UpdatedAt = now.UTC()
	return nil
}

// ClearBounty removes the active bounty, if any.
func (s *State) ClearBounty(now time.Time) {
	s.Bounty = nil
	s.UpdatedAt = now.UTC()
}

// BountyOn reports whether the active bounty names the given player name
// (case-insensitive).
func (s *State) BountyOn(name string) bool {
	if s.Bounty == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s.Bounty.TargetName), strings.TrimSpace(name))
}

// RotatePIN replaces the join PIN.
func (s *State) RotatePIN(pin string, now time.Time) {
	s.JoinPIN = strings.TrimSpace(pin)
	s.UpdatedAt = now.UTC()
}
