package storage

import (
	"context"
	"time"

	apperrors "github.com/manhuntgame/manhunt/internal/platform/errors"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/player"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/proof"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/state"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrNameTaken indicates a join tried to register a name that another
// in-game player already holds.
var ErrNameTaken = apperrors.New(apperrors.CodePlayerNameAlreadyTaken, "player name already taken")

// ErrStaleGeneration indicates a batch was built against a game state
// generation that has since moved on. The caller must re-read, recompute,
// and retry.
var ErrStaleGeneration = apperrors.New(apperrors.CodeStaleGeneration, "game state generation changed")

// ErrVictimAlreadyEliminated indicates a concurrent reviewer eliminated the
// same victim first.
var ErrVictimAlreadyEliminated = apperrors.New(apperrors.CodeVictimAlreadyEliminated, "victim already eliminated")

// PlayerRecord captures the persisted shape of one player, including the
// outgoing hunt-graph edge and the kill counters badge checks read.
type PlayerRecord struct {
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

// ToDomain converts the record into the domain player.
func (r PlayerRecord) ToDomain() player.Player {
	return player.Player{
		ID:              r.ID,
		Name:            r.Name,
		Group:           r.Group,
		Alive:           r.Alive,
		InGame:          r.InGame,
		Target:          r.Target,
		AssignedAt:      r.AssignedAt,
		KillCount:       r.KillCount,
		StreakCount:     r.StreakCount,
		BountyKillCount: r.BountyKillCount,
		PurgeKillCount:  r.PurgeKillCount,
		EliminatedBy:    r.EliminatedBy,
		EliminatedAt:    r.EliminatedAt,
		DeathLocation:   r.DeathLocation,
		Badges:          r.Badges,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// PlayerRecordFromDomain converts a domain player into its persisted shape.
func PlayerRecordFromDomain(p player.Player) PlayerRecord {
	return PlayerRecord{
		ID:              p.ID,
		Name:            p.Name,
		Group:           p.Group,
		Alive:           p.Alive,
		InGame:          p.InGame,
		Target:          p.Target,
		AssignedAt:      p.AssignedAt,
		KillCount:       p.KillCount,
		StreakCount:     p.StreakCount,
		BountyKillCount: p.BountyKillCount,
		PurgeKillCount:  p.PurgeKillCount,
		EliminatedBy:    p.EliminatedBy,
		EliminatedAt:    p.EliminatedAt,
		DeathLocation:   p.DeathLocation,
		Badges:          p.Badges,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// GameStateRecord captures the persisted singleton game state. The table
// holds exactly one row and Generation is its optimistic-concurrency
// counter.
type GameStateRecord struct {
	Started   bool
	PurgeMode bool
	JoinPIN   string

	WinnerID   string
	GameOverAt *time.Time

	BountyTargetName  string
	BountyPrize       string
	BountyDescription string
	BountySetAt       *time.Time

	Generation int64
	UpdatedAt  time.Time
}

// ToDomain converts the record into the domain state.
func (r GameStateRecord) ToDomain() state.State {
	s := state.State{
		Started:    r.Started,
		PurgeMode:  r.PurgeMode,
		JoinPIN:    r.JoinPIN,
		WinnerID:   r.WinnerID,
		GameOverAt: r.GameOverAt,
		Generation: r.Generation,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.BountyTargetName != "" && r.BountySetAt != nil {
		s.Bounty = &state.Bounty{
			TargetName:  r.BountyTargetName,
			Prize:       r.BountyPrize,
			Description: r.BountyDescription,
			SetAt:       *r.BountySetAt,
		}
	}
	return s
}

// GameStateRecordFromDomain converts the domain state into its persisted
// shape.
func GameStateRecordFromDomain(s state.State) GameStateRecord {
	r := GameStateRecord{
		Started:    s.Started,
		PurgeMode:  s.PurgeMode,
		JoinPIN:    s.JoinPIN,
		WinnerID:   s.WinnerID,
		GameOverAt: s.GameOverAt,
		Generation: s.Generation,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Bounty != nil {
		setAt := s.Bounty.SetAt
		r.BountyTargetName = s.Bounty.TargetName
		r.BountyPrize = s.Bounty.Prize
		r.BountyDescription = s.Bounty.Description
		r.BountySetAt = &setAt
	}
	return r
}

// ProofRecord captures one submitted elimination claim and its review
// outcome.
type ProofRecord struct {
	ID          string
	SubmitterID string
	TargetName  string
	MediaURL    string
	SubmittedAt time.Time

	Status proof.Status

	Reviewer    string
	ReviewedAt  *time.Time
	ReviewNotes string
}

// ToDomain converts the record into the domain proof.
func (r ProofRecord) ToDomain() proof.Proof {
	p := proof.Proof{
		ID:          r.ID,
		SubmitterID: r.SubmitterID,
		TargetName:  r.TargetName,
		MediaURL:    r.MediaURL,
		SubmittedAt: r.SubmittedAt,
		Status:      r.Status,
	}
	if r.ReviewedAt != nil {
		p.Review = &proof.Review{
			Reviewer: r.Reviewer,
			At:       *r.ReviewedAt,
			Notes:    r.ReviewNotes,
		}
	}
	return p
}

// ProofRecordFromDomain converts a domain proof into its persisted shape.
func ProofRecordFromDomain(p proof.Proof) ProofRecord {
	r := ProofRecord{
		ID:          p.ID,
		SubmitterID: p.SubmitterID,
		TargetName:  p.TargetName,
		MediaURL:    p.MediaURL,
		SubmittedAt: p.SubmittedAt,
		Status:      p.Status,
	}
	if p.Review != nil {
		at := p.Review.At
		r.Reviewer = p.Review.Reviewer
		r.ReviewedAt = &at
		r.ReviewNotes = p.Review.Notes
	}
	return r
}

// Elimination marks one victim dead inside a batch. The store applies it
// with an alive guard so two concurrent verifications of the same victim
// cannot both land.
type Elimination struct {
	VictimID string
	ByID     string
	Location string
	At       time.Time
}

// Batch is one atomic persistence unit for a decision made against a
// snapshot of the population.
//
// The store rejects the whole batch with ErrStaleGeneration when the
// persisted game state generation differs from ExpectedGeneration, and with
// ErrVictimAlreadyEliminated when any listed victim is no longer alive.
// On success the persisted generation is bumped by one.
type Batch struct {
	ExpectedGeneration int64

	Eliminations []Elimination
	// Players are full-record upserts applied after Eliminations, carrying
	// rerouted edges, counters, and badges.
	Players []PlayerRecord
	// Proofs are upserted in the same transaction so a review decision and
	// the elimination it caused cannot land separately.
	Proofs []ProofRecord
	State  *GameStateRecord
}

// PlayerStore owns the player roster and its hunt-graph edges.
type PlayerStore interface {
	// PutPlayer upserts a single player record. Joins use it; decisions
	// that depend on the rest of the population go through ApplyBatch.
	// Returns ErrNameTaken when another in-game player holds the same
	// normalized name.
	PutPlayer(ctx context.Context, p PlayerRecord) error
	GetPlayer(ctx context.Context, id string) (PlayerRecord, error)
	// ListPlayers returns every player ordered by id ascending.
	ListPlayers(ctx context.Context, inGameOnly bool) ([]PlayerRecord, error)
}

// GameStateStore owns the singleton game state row.
type GameStateStore interface {
	// GetGameState returns the singleton state. A fresh database returns
	// the zero-value record at generation 0, not ErrNotFound.
	GetGameState(ctx context.Context) (GameStateRecord, error)
}

// BatchStore applies snapshot-derived decisions atomically.
type BatchStore interface {
	ApplyBatch(ctx context.Context, b Batch) error
}

// ProofStore owns proof claims and their review lifecycle.
type ProofStore interface {
	PutProof(ctx context.Context, p ProofRecord) error
	GetProof(ctx context.Context, id string) (ProofRecord, error)
	// ListProofsByStatus returns proofs in the given status ordered by
	// submission time ascending.
	ListProofsByStatus(ctx context.Context, status proof.Status) ([]ProofRecord, error)
}

// TelemetryEvent captures operational observations emitted during command
// execution.
type TelemetryEvent struct {
	Timestamp  time.Time
	EventName  string
	Severity   string
	ActorID    string
	SubjectID  string
	TraceID    string
	SpanID     string
	Attributes map[string]any
}

// TelemetryStore persists operational telemetry records for audits and
// incident analysis.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}

// GameStatistics contains aggregate counters used by the overview endpoint.
type GameStatistics struct {
	PlayerCount      int64
	AliveCount       int64
	EliminationCount int64
	GroupCount       int64
	PendingProofs    int64
}

// StatisticsStore centralizes aggregate count queries for the admin
// overview.
type StatisticsStore interface {
	GetGameStatistics(ctx context.Context) (GameStatistics, error)
}

// Store is a composite interface for all persistence concerns of the game
// service.
type Store interface {
	PlayerStore
	GameStateStore
	BatchStore
	ProofStore
	TelemetryStore
	StatisticsStore
	Close() error
}
