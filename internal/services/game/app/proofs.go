package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/manhuntgame/manhunt/internal/services/game/domain/assignment"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/badge"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/player"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/proof"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/state"
	"github.com/manhuntgame/manhunt/internal/services/game/storage"
)

// SubmitProof records an elimination claim for admin review.
func (s *Service) SubmitProof(ctx context.Context, submitterName, targetName, mediaURL string) (proof.Proof, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return proof.Proof{}, err
	}
	if !snap.state.Started {
		return proof.Proof{}, state.ErrNotStarted
	}
	if snap.state.WinnerID != "" {
		return proof.Proof{}, state.ErrAlreadyOver
	}

	submitter, err := snap.findByName(submitterName)
	if err != nil {
		return proof.Proof{}, err
	}
	if !submitter.Alive {
		return proof.Proof{}, player.ErrAlreadyEliminated
	}
	if submitter.ToDomain().MatchesName(targetName) {
		return proof.Proof{}, ErrSelfElimination
	}

	p, err := proof.New(s.newID(), submitter.ID, targetName, mediaURL, s.now())
	if err != nil {
		return proof.Proof{}, err
	}
	if err := s.store.PutProof(ctx, storage.ProofRecordFromDomain(p)); err != nil {
		return proof.Proof{}, err
	}

	s.emit(ctx, storage.TelemetryEvent{
		EventName: "proof.submitted",
		Severity:  "INFO",
		ActorID:   submitter.ID,
		SubjectID: p.ID,
	})
	return p, nil
}

// ListPendingProofs returns the review queue in submission order.
func (s *Service) ListPendingProofs(ctx context.Context) ([]proof.Proof, error) {
	records, err := s.store.ListProofsByStatus(ctx, proof.StatusPending)
	if err != nil {
		return nil, err
	}
	proofs := make([]proof.Proof, 0, len(records))
	for _, rec := range records {
		proofs = append(proofs, rec.ToDomain())
	}
	return proofs, nil
}

// RejectProof rejects a pending proof. Rejection changes nothing else: the
// graph, the victim, and the counters all stay as they were.
func (s *Service) RejectProof(ctx context.Context, proofID, reviewer, notes string) error {
	rec, err := s.store.GetProof(ctx, proofID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrProofNotFound
	}
	if err != nil {
		return err
	}

	p := rec.ToDomain()
	if err := p.Reject(reviewer, notes, s.now()); err != nil {
		return err
	}
	if err := s.store.PutProof(ctx, storage.ProofRecordFromDomain(p)); err != nil {
		return err
	}

	s.emit(ctx, storage.TelemetryEvent{
		EventName: "proof.rejected",
		Severity:  "INFO",
		ActorID:   reviewer,
		SubjectID: proofID,
	})
	return nil
}

// EliminationReport describes what a verified proof did to the game.
type EliminationReport struct {
	ProofID  string
	KillerID string
	VictimID string

	Outcome  assignment.OutcomeKind
	WinnerID string

	BountyClaimed bool
	BadgesAwarded []string
	// Reassigned maps assassin id to the replacement target id.
	Reassigned map[string]string
}

// VerifyProof verifies a pending proof and applies the elimination it
// claims: the victim dies, the killer's counters and badges move, the hunt
// graph is repaired, and any terminal state is declared. All of it lands in
// one generation-guarded batch; a concurrent verification of the same
// victim loses with ErrVictimAlreadyEliminated.
func (s *Service) VerifyProof(ctx context.Context, proofID, reviewer, notes, location string) (EliminationReport, error) {
	var report EliminationReport
	err := s.applyWithRetry(ctx, func(ctx context.Context) error {
		rec, err := s.store.GetProof(ctx, proofID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrProofNotFound
		}
		if err != nil {
			return err
		}
		now := s.now()

		verified := rec.ToDomain()
		if err := verified.Verify(reviewer, notes, now); err != nil {
			return err
		}

		snap, err := s.loadSnapshot(ctx)
		if err != nil {
			return err
		}
		if !snap.state.Started {
			return state.ErrNotStarted
		}
		if snap.state.WinnerID != "" {
			return state.ErrAlreadyOver
		}

		killer, ok := snap.playersByID()[verified.SubmitterID]
		if !ok {
			return ErrPlayerNotFound
		}
		if !killer.Alive {
			return player.ErrAlreadyEliminated
		}
		victim, err := snap.findByName(verified.TargetName)
		if errors.Is(err, ErrPlayerNotFound) {
			return ErrVictimNotFound
		}
		if err != nil {
			return err
		}
		if !victim.Alive {
			return storage.ErrVictimAlreadyEliminated
		}
		if victim.ID == killer.ID {
			return ErrSelfElimination
		}

		st := snap.state.ToDomain()
		purge := st.PurgeMode
		bountyKill := st.BountyOn(victim.Name)
		firstKill := true
		for _, p := range snap.players {
			if !p.Alive {
				firstKill = false
				break
			}
		}

		outcome := assignment.OnEliminated(victim.ID, snap.aliveMembers(), purge, s.newSeed())

		updates := newRosterUpdates(snap)

		killerPlayer := killer.ToDomain()
		killerPlayer.RecordKill(bountyKill, purge, now)
		earned := badge.Eligible(killerPlayer, badge.ActionContext{
			KillerID:        killerPlayer.ID,
			FirstKillOfGame: firstKill,
			BountyKill:      bountyKill,
			PurgeKill:       purge,
		})
		for _, id := range earned {
			killerPlayer.Badges = append(killerPlayer.Badges, string(id))
		}
		updates.put(storage.PlayerRecordFromDomain(killerPlayer))

		if bountyKill {
			st.ClearBounty(now)
		}
		if err := updates.applyOutcome(outcome, &st, now); err != nil {
			return err
		}

		stateRec := storage.GameStateRecordFromDomain(st)
		batch := storage.Batch{
			ExpectedGeneration: snap.state.Generation,
			Eliminations: []storage.Elimination{{
				VictimID: victim.ID,
				ByID:     killer.ID,
				Location: location,
				At:       now,
			}},
			Players: updates.records(),
			Proofs:  []storage.ProofRecord{storage.ProofRecordFromDomain(verified)},
			State:   &stateRec,
		}
		if err := s.store.ApplyBatch(ctx, batch); err != nil {
			return err
		}

		report = EliminationReport{
			ProofID:       proofID,
			KillerID:      killer.ID,
			VictimID:      victim.ID,
			Outcome:       outcome.Kind,
			WinnerID:      outcome.WinnerID,
			BountyClaimed: bountyKill,
			Reassigned:    outcome.Reassigned,
		}
		for _, id := range earned {
			report.BadgesAwarded = append(report.BadgesAwarded, string(id))
		}

		s.announce(ctx, AnnounceElimination,
			fmt.Sprintf("%s has been eliminated by %s", victim.Name, killer.Name))
		if bountyKill {
			s.announce(ctx, AnnounceBountyClaimed,
				fmt.Sprintf("%s claimed the bounty on %s", killer.Name, victim.Name))
		}
		if outcome.Kind == assignment.GameOver {
			s.announceWinner(ctx, snap, outcome.WinnerID)
		}
		s.emit(ctx, storage.TelemetryEvent{
			EventName: "proof.verified",
			Severity:  "INFO",
			ActorID:   reviewer,
			SubjectID: proofID,
			Attributes: map[string]any{
				"killer_id":  killer.ID,
				"victim_id":  victim.ID,
				"purge":      purge,
				"bounty":     bountyKill,
				"reassigned": len(outcome.Reassigned),
			},
		})
		return nil
	})
	if err != nil {
		return EliminationReport{}, err
	}
	return report, nil
}
