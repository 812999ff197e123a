package app

import (
	"context"
	"fmt"

	"github.com/manhuntgame/manhunt/internal/services/game/domain/assignment"
	"github.com/manhuntgame/manhunt/internal/services/game/storage"
)

// StartGame starts the game: it freezes joining behind the PIN, builds the
// full hunt graph over the alive roster, and persists both in one batch.
func (s *Service) StartGame(ctx context.Context, pin string) error {
	return s.applyWithRetry(ctx, func(ctx context.Context) error {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return err
		}
		now := s.now()

		st := snap.state.ToDomain()
		if err := st.Start(pin, now); err != nil {
			return err
		}

		assigned, err := assignment.AssignAll(snap.aliveMembers(), s.newSeed())
		if err != nil {
			return err
		}

		batch := storage.Batch{ExpectedGeneration: snap.state.Generation}
		for _, p := range snap.players {
			if !p.Alive {
				continue
			}
			target, ok := assigned.Targets[p.ID]
			if !ok {
				continue
			}
			p.Target = target
			stamp := now
			p.AssignedAt = &stamp
			p.UpdatedAt = now
			batch.Players = append(batch.Players, p)
		}
		rec := storage.GameStateRecordFromDomain(st)
		batch.State = &rec

		if err := s.store.ApplyBatch(ctx, batch); err != nil {
			return err
		}

		s.announce(ctx, AnnounceGameStarted, "the hunt is on: targets have been assigned")
		s.emit(ctx, storage.TelemetryEvent{
			EventName: "game.started",
			Severity:  "INFO",
			Attributes: map[string]any{
				"players":    len(batch.Players),
				"unassigned": len(assigned.Unassigned),
			},
		})
		return nil
	})
}

// EndGame ends the game and clears every outstanding target edge.
func (s *Service) EndGame(ctx context.Context) error {
	return s.applyWithRetry(ctx, func(ctx context.Context) error {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return err
		}
		now := s.now()

		st := snap.state.ToDomain()
		if err := st.End(now); err != nil {
			return err
		}

		batch := storage.Batch{ExpectedGeneration: snap.state.Generation}
		for _, p := range snap.players {
			if p.Target == "" {
				continue
			}
			p.Target = ""
			p.AssignedAt = nil
			p.UpdatedAt = now
			batch.Players = append(batch.Players, p)
		}
		rec := storage.GameStateRecordFromDomain(st)
		batch.State = &rec

		if err := s.store.ApplyBatch(ctx, batch); err != nil {
			return err
		}

		s.announce(ctx, AnnounceGameEnded, "the game has ended")
		s.emit(ctx, storage.TelemetryEvent{EventName: "game.ended", Severity: "INFO"})
		return nil
	})
}

// TogglePurgeMode flips purge mode and reports the new value. Entering
// purge leaves the graph frozen; leaving purge rebuilds it from scratch so
// the one-target invariant holds again.
func (s *Service) TogglePurgeMode(ctx context.Context) (bool, error) {
	var enabled bool
	err := s.applyWithRetry(ctx, func(ctx context.Context) error {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return err
		}
		now := s.now()

		st := snap.state.ToDomain()
		enabled, err = st.TogglePurge(now)
		if err != nil {
			return err
		}

		batch := storage.Batch{ExpectedGeneration: snap.state.Generation}
		if !enabled {
			assigned, err := assignment.ReassignAfterPurge(snap.aliveMembers(), s.newSeed())
			if err != nil {
				return err
			}
			for _, p := range snap.players {
				if !p.Alive {
					continue
				}
				target, ok := assigned.Targets[p.ID]
				if !ok || target == p.Target {
					continue
				}
				p.Target = target
				stamp := now
				p.AssignedAt = &stamp
				p.UpdatedAt = now
				batch.Players = append(batch.Players, p)
			}
		}
		rec := storage.GameStateRecordFromDomain(st)
		batch.State = &rec

		if err := s.store.ApplyBatch(ctx, batch); err != nil {
			return err
		}

		message := "purge mode is over: new targets have been assigned"
		if enabled {
			message = "purge mode is on: anyone is fair game"
		}
		s.announce(ctx, AnnouncePurgeMode, message)
		s.emit(ctx, storage.TelemetryEvent{
			EventName:  "purge.toggled",
			Severity:   "INFO",
			Attributes: map[string]any{"enabled": enabled},
		})
		return nil
	})
	if err != nil {
		return false, err
	}
	return enabled, nil
}

// RotateJoinPIN replaces the join PIN.
func (s *Service) RotateJoinPIN(ctx context.Context, pin string) error {
	return s.applyWithRetry(ctx, func(ctx context.Context) error {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return err
		}
		st := snap.state.ToDomain()
		st.RotatePIN(pin, s.now())
		rec := storage.GameStateRecordFromDomain(st)
		return s.store.ApplyBatch(ctx, storage.Batch{
			ExpectedGeneration: snap.state.Generation,
			State:              &rec,
		})
	})
}

// SetBounty places a bounty on an alive player by name.
func (s *Service) SetBounty(ctx context.Context, targetName, prize, description string) error {
	return s.applyWithRetry(ctx, func(ctx context.Context) error {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return err
		}
		target, err := snap.findByName(targetName)
		if err != nil {
			return err
		}
		if !target.Alive {
			return ErrVictimNotFound
		}

		st := snap.state.ToDomain()
		if err := st.SetBounty(target.Name, prize, description, s.now()); err != nil {
			return err
		}
		rec := storage.GameStateRecordFromDomain(st)
		if err := s.store.ApplyBatch(ctx, storage.Batch{
			ExpectedGeneration: snap.state.Generation,
			State:              &rec,
		}); err != nil {
			return err
		}

		s.announce(ctx, AnnounceBountySet,
			fmt.Sprintf("a bounty is out on %s: %s", target.Name, prize))
		return nil
	})
}

// ClearBounty removes the active bounty, if any.
func (s *Service) ClearBounty(ctx context.Context) error {
	return s.applyWithRetry(ctx, func(ctx context.Context) error {
		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return err
		}
		st := snap.state.ToDomain()
		st.ClearBounty(s.now())
		rec := storage.GameStateRecordFromDomain(st)
		return s.store.ApplyBatch(ctx, storage.Batch{
			ExpectedGeneration: snap.state.Generation,
			State:              &rec,
		})
	})
}
