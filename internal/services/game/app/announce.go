package app

import (
	"context"
	"log"
	"time"
)

// Announcement kinds published to players.
const (
	AnnounceGameStarted   = "game.started"
	AnnounceGameEnded     = "game.ended"
	AnnounceElimination   = "player.eliminated"
	AnnouncePurgeMode     = "purge.toggled"
	AnnounceBountySet     = "bounty.set"
	AnnounceBountyClaimed = "bounty.claimed"
	AnnounceWinner        = "game.winner"
)

// Announcement is one public game message.
type Announcement struct {
	Kind    string
	Message string
	At      time.Time
}

// Announcer publishes announcements to players. Implementations must be
// safe for concurrent use.
type Announcer interface {
	Announce(ctx context.Context, a Announcement)
}

// LogAnnouncer writes announcements to the process log. It is the default
// sink for deployments without an external channel.
type LogAnnouncer struct {
	Logger *log.Logger
}

// Announce logs the announcement.
func (l LogAnnouncer) Announce(_ context.Context, a Announcement) {
	if l.Logger != nil {
		l.Logger.Printf("announce %s: %s", a.Kind, a.Message)
		return
	}
	log.Printf("announce %s: %s", a.Kind, a.Message)
}
