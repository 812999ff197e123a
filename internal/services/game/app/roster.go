package app

import (
	"context"
	"fmt"
	"time"

	"github.com/manhuntgame/manhunt/internal/services/game/domain/assignment"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/player"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/state"
	"github.com/manhuntgame/manhunt/internal/services/game/storage"
)

// JoinGame registers a new player behind the join PIN. Joining closes once
// the game starts: a mid-game join would need an edge the engine never
// handed out.
func (s *Service) JoinGame(ctx context.Context, name, group, pin string) (player.Player, error) {
	gameState, err := s.store.GetGameState(ctx)
	if err != nil {
		return player.Player{}, fmt.Errorf("load game state: %w", err)
	}
	if gameState.Started {
		return player.Player{}, state.ErrAlreadyStarted
	}
	if gameState.WinnerID != "" {
		return player.Player{}, state.ErrAlreadyOver
	}
	if gameState.JoinPIN != "" && gameState.JoinPIN != pin {
		return player.Player{}, ErrInvalidJoinPIN
	}

	p, err := player.New(s.newID(), name, group, s.now())
	if err != nil {
		return player.Player{}, err
	}
	if err := s.store.PutPlayer(ctx, storage.PlayerRecordFromDomain(p)); err != nil {
		return player.Player{}, err
	}

	s.emit(ctx, storage.TelemetryEvent{
		EventName: "player.joined",
		Severity:  "INFO",
		SubjectID: p.ID,
		Attributes: map[string]any{
			"group": p.Group,
		},
	})
	return p, nil
}

// RemovePlayer takes a player out of the game by name. When the game is
// running and the player is alive, the hunt graph is repaired exactly as if
// the player had been eliminated, but nobody is credited with a kill.
func (s *Service) RemovePlayer(ctx context.Context, name string) error {
	return s.applyWithRetry(ctx, func(ctx context.Context) error {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return err
		}
		removed, err := snap.findByName(name)
		if err != nil {
			return err
		}
		now := s.now()

		batch := storage.Batch{ExpectedGeneration: snap.state.Generation}
		updates := newRosterUpdates(snap)

		removed.InGame = false
		removed.Target = ""
		removed.AssignedAt = nil
		removed.UpdatedAt = now
		updates.put(removed)

		if snap.state.Started && removed.Alive {
			outcome := assignment.OnEliminated(
				removed.ID, snap.aliveMembers(), snap.state.PurgeMode, s.newSeed())
			st := snap.state.ToDomain()
			if err := updates.applyOutcome(outcome, &st, now); err != nil {
				return err
			}
			rec := storage.GameStateRecordFromDomain(st)
			batch.State = &rec

			if outcome.Kind == assignment.GameOver {
				s.announceWinner(ctx, snap, outcome.WinnerID)
			}
		}

		batch.Players = updates.records()
		if err := s.store.ApplyBatch(ctx, batch); err != nil {
			return err
		}

		s.emit(ctx, storage.TelemetryEvent{
			EventName: "player.removed",
			Severity:  "INFO",
			SubjectID: removed.ID,
		})
		return nil
	})
}

func (s *Service) announceWinner(ctx context.Context, snap snapshot, winnerID string) {
	winnerName := winnerID
	if rec, ok := snap.playersByID()[winnerID]; ok {
		winnerName = rec.Name
	}
	s.announce(ctx, AnnounceWinner, fmt.Sprintf("%s is the last one standing", winnerName))
}

// rosterUpdates collects pending player record changes keyed by id so a
// player touched twice in one command still produces a single upsert.
type rosterUpdates struct {
	byID    map[string]storage.PlayerRecord
	pending map[string]storage.PlayerRecord
	order   []string
}

func newRosterUpdates(snap snapshot) *rosterUpdates {
	return &rosterUpdates{
		byID:    snap.playersByID(),
		pending: make(map[string]storage.PlayerRecord),
	}
}

func (u *rosterUpdates) get(id string) (storage.PlayerRecord, bool) {
	if rec, ok := u.pending[id]; ok {
		return rec, true
	}
	rec, ok := u.byID[id]
	return rec, ok
}

func (u *rosterUpdates) put(rec storage.PlayerRecord) {
	if _, ok := u.pending[rec.ID]; !ok {
		u.order = append(u.order, rec.ID)
	}
	u.pending[rec.ID] = rec
}

func (u *rosterUpdates) records() []storage.PlayerRecord {
	records := make([]storage.PlayerRecord, 0, len(u.order))
	for _, id := range u.order {
		records = append(records, u.pending[id])
	}
	return records
}

// applyOutcome folds an engine repair into pending roster updates and the
// game state.
func (u *rosterUpdates) applyOutcome(outcome assignment.Outcome, st *state.State, now time.Time) error {
	for assassinID, targetID := range outcome.Reassigned {
		rec, ok := u.get(assassinID)
		if !ok {
			continue
		}
		rec.Target = targetID
		stamp := now
		rec.AssignedAt = &stamp
		rec.UpdatedAt = now
		u.put(rec)
	}
	for _, id := range outcome.Cleared {
		rec, ok := u.get(id)
		if !ok {
			continue
		}
		rec.Target = ""
		rec.AssignedAt = nil
		rec.UpdatedAt = now
		u.put(rec)
	}
	if outcome.Kind == assignment.GameOver {
		if err := st.DeclareWinner(outcome.WinnerID, now); err != nil {
			return err
		}
	}
	return nil
}
