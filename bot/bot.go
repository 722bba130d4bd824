// Package bot is the chat side of starbot: platform adapters for Discord and
// Twitch, the command handler, and the formatting of change announcements.
// The watcher hands detected changes to an Announcer; incoming messages flow
// the other way into the Commander.
package bot

import (
	"context"

	"github.com/daniel-tp/starbot/starrealms"
	"github.com/daniel-tp/starbot/tracker"
)

// Platform is one chat connection the bot can run on. Run blocks until the
// context is cancelled; Send delivers to the configured announcement channel.
type Platform interface {
	Run(ctx context.Context) error
	Send(ctx context.Context, text string) error
	Connected() bool
}

// Sink is the sending half of a Platform.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// Announcer formats detected changes and delivers them through a Sink.
type Announcer struct {
	Sink Sink
}

func (a *Announcer) AnnounceTurn(ctx context.Context, change tracker.TurnChange) error {
	return a.Sink.Send(ctx, FormatTurn(change))
}

func (a *Announcer) AnnounceChallenge(ctx context.Context, ch starrealms.Challenge) error {
	return a.Sink.Send(ctx, FormatChallenge(ch))
}

func (a *Announcer) AnnounceFinished(ctx context.Context, g starrealms.Game) error {
	return a.Sink.Send(ctx, FormatFinished(g))
}
