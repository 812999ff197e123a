package player

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

func TestNewValidation(t *testing.T) {
	if _, err := New("p1", "  ", "red", now); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("err = %v, want ErrNameRequired", err)
	}
	if _, err := New("p1", "Alex", "", now); !errors.Is(err, ErrGroupRequired) {
		t.Fatalf("err = %v, want ErrGroupRequired", err)
	}

	p, err := New("p1", " Alex ", "red", now)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.Name != "Alex" {
		t.Fatalf("name = %q, want trimmed %q", p.Name, "Alex")
	}
	if !p.Alive || !p.InGame {
		t.Fatal("new player must be alive and in game")
	}
	if p.Target != "" {
		t.Fatalf("target = %q, want none before game start", p.Target)
	}
}

func TestEliminateIsOneShot(t *testing.T) {
	p, err := New("p1", "Alex", "red", now)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p.Target = "p2"

	if err := p.Eliminate("p3", "library", now.Add(time.Hour)); err != nil {
		t.Fatalf("eliminate: %v", err)
	}
	if p.Alive {
		t.Fatal("player still alive after elimination")
	}
	if p.Target != "" {
		t.Fatalf("target = %q, want cleared", p.Target)
	}
	if p.EliminatedBy != "p3" || p.DeathLocation != "library" {
		t.Fatalf("elimination stamp = %q/%q", p.EliminatedBy, p.DeathLocation)
	}

	if err := p.Eliminate("p4", "hallway", now.Add(2*time.Hour)); !errors.Is(err, ErrAlreadyEliminated) {
		t.Fatalf("second eliminate err = %v, want ErrAlreadyEliminated", err)
	}
	if p.EliminatedBy != "p3" {
		t.Fatalf("eliminatedBy = %q, second eliminate must not overwrite", p.EliminatedBy)
	}
}

func TestRecordKillCounters(t *testing.T) {
	p, err := New("p1", "Alex", "red", now)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	p.RecordKill(false, false, now)
	p.RecordKill(true, false, now)
	p.RecordKill(false, true, now)

	if p.KillCount != 3 {
		t.Fatalf("killCount = %d, want 3", p.KillCount)
	}
	if p.StreakCount != 3 {
		t.Fatalf("streakCount = %d, want 3", p.StreakCount)
	}
	if p.BountyKillCount != 1 {
		t.Fatalf("bountyKillCount = %d, want 1", p.BountyKillCount)
	}
	if p.PurgeKillCount != 1 {
		t.Fatalf("purgeKillCount = %d, want 1", p.PurgeKillCount)
	}
}

func TestMatchesName(t *testing.T) {
	p := Player{Name: "Alex Doe"}
	if !p.MatchesName("  alex doe ") {
		t.Fatal("expected case-insensitive, trimmed match")
	}
	if p.MatchesName("alexdoe") {
		t.Fatal("unexpected match")
	}
}
