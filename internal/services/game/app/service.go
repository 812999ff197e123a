package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/manhuntgame/manhunt/internal/platform/errors"
	"github.com/manhuntgame/manhunt/internal/platform/random"
	"github.com/manhuntgame/manhunt/internal/platform/timeouts"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/assignment"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/player"
	"github.com/manhuntgame/manhunt/internal/services/game/storage"
	"github.com/manhuntgame/manhunt/internal/telemetry"
)

var (
	// ErrInvalidJoinPIN indicates a join attempt with the wrong PIN.
	ErrInvalidJoinPIN = apperrors.New(apperrors.CodeInvalidJoinPin, "join pin is invalid")
	// ErrPlayerNotFound indicates no in-game player matches the given name.
	ErrPlayerNotFound = apperrors.New(apperrors.CodePlayerNotFound, "player not found")
	// ErrAmbiguousPlayerName indicates a name matching more than one player.
	ErrAmbiguousPlayerName = apperrors.New(apperrors.CodeAmbiguousPlayerName, "player name matches more than one player")
	// ErrVictimNotFound indicates a proof naming no alive player.
	ErrVictimNotFound = apperrors.New(apperrors.CodeVictimNotFound, "victim not found among alive players")
	// ErrSelfElimination indicates a proof naming the submitter itself.
	ErrSelfElimination = apperrors.New(apperrors.CodeSelfEliminationForbidden, "players cannot eliminate themselves")
	// ErrProofNotFound indicates a review of an unknown proof.
	ErrProofNotFound = apperrors.New(apperrors.CodeProofNotFound, "proof not found")
)

// Service orchestrates game commands.
type Service struct {
	store     storage.Store
	emitter   *telemetry.Emitter
	announcer Announcer

	clock   func() time.Time
	newSeed func() int64
	newID   func() string
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithClock replaces the wall clock, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithSeedSource replaces the assignment seed source. Deterministic seeds
// make engine decisions reproducible in tests and replays.
func WithSeedSource(newSeed func() int64) Option {
	return func(s *Service) { s.newSeed = newSeed }
}

// WithIDSource replaces the id generator.
func WithIDSource(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithAnnouncer replaces the announcement sink.
func WithAnnouncer(a Announcer) Option {
	return func(s *Service) { s.announcer = a }
}

// WithTelemetry attaches a telemetry emitter.
func WithTelemetry(e *telemetry.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// defaultSeed adapts the platform seed helper to the service's infallible
// signature. Seed generation only fails when the OS entropy source does,
// which no game operation can recover from.
func defaultSeed() int64 {
	seed, err := random.NewSeed()
	if err != nil {
		panic(fmt.Sprintf("generate assignment seed: %v", err))
	}
	return seed
}

// NewService creates the game command service.
func NewService(store storage.Store, newID func() string, opts ...Option) *Service {
	s := &Service{
		store:     store,
		announcer: LogAnnouncer{},
		clock:     time.Now,
		newSeed:   defaultSeed,
		newID:     newID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Service) announce(ctx context.Context, kind, message string) {
	if s.announcer == nil {
		return
	}
	s.announcer.Announce(ctx, Announcement{Kind: kind, Message: message, At: s.now()})
}

func (s *Service) emit(ctx context.Context, evt storage.TelemetryEvent) {
	// Telemetry must never fail the command it describes.
	_ = s.emitter.Emit(ctx, evt)
}

// applyWithRetry runs op and retries it once against a fresh snapshot when
// the persisted generation moved under it.
func (s *Service) applyWithRetry(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	if !errors.Is(err, storage.ErrStaleGeneration) {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeouts.StoreRetryBackoff):
	}
	return op(ctx)
}

// snapshot is one consistent read of the roster and the game state.
type snapshot struct {
	state   storage.GameStateRecord
	players []storage.PlayerRecord
}

func (s *Service) loadSnapshot(ctx context.Context) (snapshot, error) {
	state, err := s.store.GetGameState(ctx)
	if err != nil {
		return snapshot{}, fmt.Errorf("load game state: %w", err)
	}
	players, err := s.store.ListPlayers(ctx, true)
	if err != nil {
		return snapshot{}, fmt.Errorf("load players: %w", err)
	}
	return snapshot{state: state, players: players}, nil
}

// aliveMembers projects the alive roster into the engine's member view.
func (snap snapshot) aliveMembers() []assignment.Member {
	var members []assignment.Member
	for _, p := range snap.players {
		if !p.Alive {
			continue
		}
		members = append(members, assignment.Member{ID: p.ID, Group: p.Group, Target: p.Target})
	}
	return members
}

func (snap snapshot) playersByID() map[string]storage.PlayerRecord {
	byID := make(map[string]storage.PlayerRecord, len(snap.players))
	for _, p := range snap.players {
		byID[p.ID] = p
	}
	return byID
}

// findByName resolves a player name against the in-game roster.
func (snap snapshot) findByName(name string) (storage.PlayerRecord, error) {
	var matches []storage.PlayerRecord
	for _, p := range snap.players {
		if p.ToDomain().MatchesName(name) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return storage.PlayerRecord{}, ErrPlayerNotFound
	case 1:
		return matches[0], nil
	default:
		return storage.PlayerRecord{}, apperrors.WithMetadata(
			apperrors.CodeAmbiguousPlayerName,
			"player name matches more than one player",
			map[string]string{"name": player.NormalizeName(name)},
		)
	}
}
