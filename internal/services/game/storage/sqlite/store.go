package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/manhuntgame/manhunt/internal/platform/storage/sqlitemigrate"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/player"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/proof"
	"github.com/manhuntgame/manhunt/internal/services/game/storage"
	"github.com/manhuntgame/manhunt/internal/services/game/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullMillis maps optional domain times to sql.NullInt64 for nullable columns.
func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

// fromNullMillis maps nullable SQL timestamps back into optional time values.
func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Store provides a SQLite-backed store implementing all storage interfaces.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the game store at the provided path and applies embedded
// migrations before the store is handed to higher layers.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.GameFS, "game"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
//
// Close is intentionally nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func encodeBadges(badges []string) (string, error) {
	if len(badges) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(badges)
	if err != nil {
		return "", fmt.Errorf("encode badges: %w", err)
	}
	return string(raw), nil
}

func decodeBadges(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" || raw == "[]" {
		return nil, nil
	}
	var badges []string
	if err := json.Unmarshal([]byte(raw), &badges); err != nil {
		return nil, fmt.Errorf("decode badges: %w", err)
	}
	return badges, nil
}

const playerColumns = `id, name, group_label, alive, in_game, target_id, assigned_at,
kill_count, streak_count, bounty_kill_count, purge_kill_count,
eliminated_by, eliminated_at, death_location, badges, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (storage.PlayerRecord, error) {
	var (
		rec          storage.PlayerRecord
		alive        int64
		inGame       int64
		assignedAt   sql.NullInt64
		eliminatedAt sql.NullInt64
		badges       string
		createdAt    int64
		updatedAt    int64
	)
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Group, &alive, &inGame, &rec.Target, &assignedAt,
		&rec.KillCount, &rec.StreakCount, &rec.BountyKillCount, &rec.PurgeKillCount,
		&rec.EliminatedBy, &eliminatedAt, &rec.DeathLocation, &badges, &createdAt, &updatedAt,
	)
	if err != nil {
		return storage.PlayerRecord{}, err
	}
	rec.Alive = alive != 0
	rec.InGame = inGame != 0
	rec.AssignedAt = fromNullMillis(assignedAt)
	rec.EliminatedAt = fromNullMillis(eliminatedAt)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	rec.Badges, err = decodeBadges(badges)
	if err != nil {
		return storage.PlayerRecord{}, err
	}
	return rec, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertPlayer(ctx context.Context, ex execer, p storage.PlayerRecord) error {
	badges, err := encodeBadges(p.Badges)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `
INSERT INTO players (
	id, name, name_normalized, group_label, alive, in_game, target_id, assigned_at,
	kill_count, streak_count, bounty_kill_count, purge_kill_count,
	eliminated_by, eliminated_at, death_location, badges, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	name_normalized = excluded.name_normalized,
	group_label = excluded.group_label,
	alive = excluded.alive,
	in_game = excluded.in_game,
	target_id = excluded.target_id,
	assigned_at = excluded.assigned_at,
	kill_count = excluded.kill_count,
	streak_count = excluded.streak_count,
	bounty_kill_count = excluded.bounty_kill_count,
	purge_kill_count = excluded.purge_kill_count,
	eliminated_by = excluded.eliminated_by,
	eliminated_at = excluded.eliminated_at,
	death_location = excluded.death_location,
	badges = excluded.badges,
	updated_at = excluded.updated_at`,
		p.ID, p.Name, player.NormalizeName(p.Name), p.Group,
		boolToInt(p.Alive), boolToInt(p.InGame), p.Target, toNullMillis(p.AssignedAt),
		p.KillCount, p.StreakCount, p.BountyKillCount, p.PurgeKillCount,
		p.EliminatedBy, toNullMillis(p.EliminatedAt), p.DeathLocation, badges,
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return storage.ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", p.ID, err)
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// PutPlayer upserts one player record.
func (s *Store) PutPlayer(ctx context.Context, p storage.PlayerRecord) error {
	return upsertPlayer(ctx, s.sqlDB, p)
}

// GetPlayer retrieves a player by id.
func (s *Store) GetPlayer(ctx context.Context, id string) (storage.PlayerRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	rec, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.PlayerRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("get player %s: %w", id, err)
	}
	return rec, nil
}

// ListPlayers returns players ordered by id ascending.
func (s *Store) ListPlayers(ctx context.Context, inGameOnly bool) ([]storage.PlayerRecord, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY id ASC`
	if inGameOnly {
		query = `SELECT ` + playerColumns + ` FROM players WHERE in_game = 1 ORDER BY id ASC`
	}
	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []storage.PlayerRecord
	for rows.Next() {
		rec, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// GetGameState returns the singleton game state row.
func (s *Store) GetGameState(ctx context.Context) (storage.GameStateRecord, error) {
	return getGameState(ctx, s.sqlDB)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getGameState(ctx context.Context, q querier) (storage.GameStateRecord, error) {
	var (
		rec         storage.GameStateRecord
		started     int64
		purgeMode   int64
		gameOverAt  sql.NullInt64
		bountySetAt sql.NullInt64
		updatedAt   int64
	)
	err := q.QueryRowContext(ctx, `
SELECT started, purge_mode, join_pin, winner_id, game_over_at,
	bounty_target_name, bounty_prize, bounty_description, bounty_set_at,
	generation, updated_at
FROM game_state WHERE id = 1`).Scan(
		&started, &purgeMode, &rec.JoinPIN, &rec.WinnerID, &gameOverAt,
		&rec.BountyTargetName, &rec.BountyPrize, &rec.BountyDescription, &bountySetAt,
		&rec.Generation, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.GameStateRecord{}, nil
	}
	if err != nil {
		return storage.GameStateRecord{}, fmt.Errorf("get game state: %w", err)
	}
	rec.Started = started != 0
	rec.PurgeMode = purgeMode != 0
	rec.GameOverAt = fromNullMillis(gameOverAt)
	rec.BountySetAt = fromNullMillis(bountySetAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

// ApplyBatch applies eliminations, player and proof upserts, and the state
// update in one transaction guarded by the expected generation.
func (s *Store) ApplyBatch(ctx context.Context, b storage.Batch) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var generation int64
	if err := tx.QueryRowContext(ctx,
		`SELECT generation FROM game_state WHERE id = 1`).Scan(&generation); err != nil {
		return fmt.Errorf("read generation: %w", err)
	}
	if generation != b.ExpectedGeneration {
		return storage.ErrStaleGeneration
	}

	for _, elim := range b.Eliminations {
		res, err := tx.ExecContext(ctx, `
UPDATE players SET
	alive = 0,
	target_id = '',
	assigned_at = NULL,
	streak_count = 0,
	eliminated_by = ?,
	eliminated_at = ?,
	death_location = ?,
	updated_at = ?
WHERE id = ? AND alive = 1`,
			elim.ByID, toMillis(elim.At), elim.Location, toMillis(elim.At), elim.VictimID)
		if err != nil {
			return fmt.Errorf("eliminate player %s: %w", elim.VictimID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("eliminate player %s: %w", elim.VictimID, err)
		}
		if affected == 0 {
			return storage.ErrVictimAlreadyEliminated
		}
	}

	for _, p := range b.Players {
		if err := upsertPlayer(ctx, tx, p); err != nil {
			return err
		}
	}

	for _, p := range b.Proofs {
		if err := upsertProof(ctx, tx, p); err != nil {
			return err
		}
	}

	next := b.ExpectedGeneration + 1
	if b.State != nil {
		st := *b.State
		if _, err := tx.ExecContext(ctx, `
UPDATE game_state SET
	started = ?,
	purge_mode = ?,
	join_pin = ?,
	winner_id = ?,
	game_over_at = ?,
	bounty_target_name = ?,
	bounty_prize = ?,
	bounty_description = ?,
	bounty_set_at = ?,
	generation = ?,
	updated_at = ?
WHERE id = 1`,
			boolToInt(st.Started), boolToInt(st.PurgeMode), st.JoinPIN,
			st.WinnerID, toNullMillis(st.GameOverAt),
			st.BountyTargetName, st.BountyPrize, st.BountyDescription,
			toNullMillis(st.BountySetAt),
			next, toMillis(st.UpdatedAt),
		); err != nil {
			return fmt.Errorf("update game state: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
UPDATE game_state SET generation = ?, updated_at = ? WHERE id = 1`,
			next, toMillis(time.Now()),
		); err != nil {
			return fmt.Errorf("bump generation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// PutProof upserts a proof record.
func (s *Store) PutProof(ctx context.Context, p storage.ProofRecord) error {
	return upsertProof(ctx, s.sqlDB, p)
}

func upsertProof(ctx context.Context, ex execer, p storage.ProofRecord) error {
	_, err := ex.ExecContext(ctx, `
INSERT INTO proofs (
	id, submitter_id, target_name, media_url, submitted_at,
	status, reviewer, reviewed_at, review_notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	reviewer = excluded.reviewer,
	reviewed_at = excluded.reviewed_at,
	review_notes = excluded.review_notes`,
		p.ID, p.SubmitterID, p.TargetName, p.MediaURL, toMillis(p.SubmittedAt),
		string(p.Status), p.Reviewer, toNullMillis(p.ReviewedAt), p.ReviewNotes,
	)
	if err != nil {
		return fmt.Errorf("upsert proof %s: %w", p.ID, err)
	}
	return nil
}

const proofColumns = `id, submitter_id, target_name, media_url, submitted_at,
status, reviewer, reviewed_at, review_notes`

func scanProof(row rowScanner) (storage.ProofRecord, error) {
	var (
		rec         storage.ProofRecord
		submittedAt int64
		status      string
		reviewedAt  sql.NullInt64
	)
	err := row.Scan(
		&rec.ID, &rec.SubmitterID, &rec.TargetName, &rec.MediaURL, &submittedAt,
		&status, &rec.Reviewer, &reviewedAt, &rec.ReviewNotes,
	)
	if err != nil {
		return storage.ProofRecord{}, err
	}
	rec.SubmittedAt = fromMillis(submittedAt)
	rec.Status = proof.Status(status)
	rec.ReviewedAt = fromNullMillis(reviewedAt)
	return rec, nil
}

// GetProof retrieves a proof by id.
func (s *Store) GetProof(ctx context.Context, id string) (storage.ProofRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+proofColumns+` FROM proofs WHERE id = ?`, id)
	rec, err := scanProof(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ProofRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ProofRecord{}, fmt.Errorf("get proof %s: %w", id, err)
	}
	return rec, nil
}

// ListProofsByStatus returns proofs in the given status ordered by submission
// time ascending.
func (s *Store) ListProofsByStatus(ctx context.Context, status proof.Status) ([]storage.ProofRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+proofColumns+` FROM proofs WHERE status = ? ORDER BY submitted_at ASC, id ASC`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	defer rows.Close()

	var proofs []storage.ProofRecord
	for rows.Next() {
		rec, err := scanProof(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proof: %w", err)
		}
		proofs = append(proofs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	return proofs, nil
}

// AppendTelemetryEvent persists one operational telemetry record.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	attrs := "{}"
	if len(evt.Attributes) > 0 {
		raw, err := json.Marshal(evt.Attributes)
		if err != nil {
			return fmt.Errorf("encode telemetry attributes: %w", err)
		}
		attrs = string(raw)
	}
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (ts, event_name, severity, actor_id, subject_id, trace_id, span_id, attributes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		toMillis(ts), evt.EventName, evt.Severity, evt.ActorID, evt.SubjectID,
		evt.TraceID, evt.SpanID, attrs,
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

// GetGameStatistics returns aggregate counts for the admin overview.
func (s *Store) GetGameStatistics(ctx context.Context) (storage.GameStatistics, error) {
	var stats storage.GameStatistics
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM players WHERE in_game = 1),
	(SELECT COUNT(*) FROM players WHERE in_game = 1 AND alive = 1),
	(SELECT COUNT(*) FROM players WHERE in_game = 1 AND alive = 0),
	(SELECT COUNT(DISTINCT group_label) FROM players WHERE in_game = 1 AND alive = 1),
	(SELECT COUNT(*) FROM proofs WHERE status = 'pending')`).Scan(
		&stats.PlayerCount, &stats.AliveCount, &stats.EliminationCount,
		&stats.GroupCount, &stats.PendingProofs,
	)
	if err != nil {
		return storage.GameStatistics{}, fmt.Errorf("get game statistics: %w", err)
	}
	return stats, nil
}

var _ storage.Store = (*Store)(nil)
