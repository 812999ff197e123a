package app

import (
	"context"
	"sort"

	"github.com/manhuntgame/manhunt/internal/services/game/domain/player"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/state"
	"github.com/manhuntgame/manhunt/internal/services/game/storage"
)

// LeaderEntry is one row of the kill leaderboard.
type LeaderEntry struct {
	PlayerID string
	Name     string
	Group    string
	Alive    bool
	Kills    int
	Streak   int
	Badges   []string
}

// Overview is the admin dashboard view of the whole game.
type Overview struct {
	State   state.State
	Stats   storage.GameStatistics
	Leaders []LeaderEntry
}

const leaderboardSize = 10

// GameOverview returns the game state, aggregate counters, and the kill
// leaderboard.
func (s *Service) GameOverview(ctx context.Context) (Overview, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return Overview{}, err
	}
	stats, err := s.store.GetGameStatistics(ctx)
	if err != nil {
		return Overview{}, err
	}

	leaders := make([]LeaderEntry, 0, len(snap.players))
	for _, p := range snap.players {
		leaders = append(leaders, LeaderEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Group:    p.Group,
			Alive:    p.Alive,
			Kills:    p.KillCount,
			Streak:   p.StreakCount,
			Badges:   p.Badges,
		})
	}
	sort.Slice(leaders, func(i, j int) bool {
		if leaders[i].Kills != leaders[j].Kills {
			return leaders[i].Kills > leaders[j].Kills
		}
		return leaders[i].Name < leaders[j].Name
	})
	if len(leaders) > leaderboardSize {
		leaders = leaders[:leaderboardSize]
	}

	return Overview{
		State:   snap.state.ToDomain(),
		Stats:   stats,
		Leaders: leaders,
	}, nil
}

// DominationReport is the result of the manually triggered class-domination
// check.
type DominationReport struct {
	// Dominant reports whether every alive player shares one group.
	Dominant bool
	// Group is the dominating group when Dominant is true.
	Group string
	// Alive counts the surviving players.
	Alive int
}

// CheckClassDomination reports whether a single group holds every surviving
// player. The graph repair clears all targets when this happens, but
// declaring it a win stays a human decision; this check only informs it.
func (s *Service) CheckClassDomination(ctx context.Context) (DominationReport, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return DominationReport{}, err
	}

	report := DominationReport{}
	groups := make(map[string]struct{})
	for _, p := range snap.players {
		if !p.Alive {
			continue
		}
		report.Alive++
		groups[p.Group] = struct{}{}
		report.Group = p.Group
	}
	if len(groups) == 1 && report.Alive > 0 {
		report.Dominant = true
	} else {
		report.Group = ""
	}
	return report, nil
}

// PlayerView is a player-facing projection: own state plus the target's
// name, never the whole graph.
type PlayerView struct {
	Player     player.Player
	TargetName string
}

// GetPlayerView resolves a player by name and the name of their current
// target.
func (s *Service) GetPlayerView(ctx context.Context, name string) (PlayerView, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return PlayerView{}, err
	}
	rec, err := snap.findByName(name)
	if err != nil {
		return PlayerView{}, err
	}
	view := PlayerView{Player: rec.ToDomain()}
	if rec.Target != "" {
		if target, ok := snap.playersByID()[rec.Target]; ok {
			view.TargetName = target.Name
		}
	}
	return view, nil
}

// ListPlayers returns the full in-game roster for admin use.
func (s *Service) ListPlayers(ctx context.Context) ([]player.Player, error) {
	records, err := s.store.ListPlayers(ctx, true)
	if err != nil {
		return nil, err
	}
	players := make([]player.Player, 0, len(records))
	for _, rec := range records {
		players = append(players, rec.ToDomain())
	}
	return players, nil
}
