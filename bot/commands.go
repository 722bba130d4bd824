package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/daniel-tp/starbot/starrealms"
	"github.com/daniel-tp/starbot/telemetry"
	"github.com/daniel-tp/starbot/tracker"
)

// ActivityFetcher is the slice of the Star Realms client that commands need.
type ActivityFetcher interface {
	Activity(ctx context.Context) (starrealms.Activity, error)
}

// Commander answers chat commands with live Star Realms data. Commands match
// on a case-insensitive prefix.
//
// !turns runs a detection pass against a fresh snapshot, so whatever it
// reports is consumed and the background watcher will not repeat it. !chal
// lists every open challenge without touching tracked state, and may
// therefore repeat what a poll already announced.
type Commander struct {
	Source  ActivityFetcher
	Tracker *tracker.Tracker
	Version string
}

const fetchFailedReply = "Could not reach Star Realms, try again later."

// HandleMessage returns reply lines for a recognized command, or nil for
// anything else.
func (c *Commander) HandleMessage(ctx context.Context, text string) []string {
	msg := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(msg, "!turns"):
		return c.handleTurns(ctx)
	case strings.HasPrefix(msg, "!chal"):
		return c.handleChallenges(ctx)
	case strings.HasPrefix(msg, "!version"):
		telemetry.IncCommand("version")
		return []string{"Starbot " + c.Version}
	}
	return nil
}

func (c *Commander) handleTurns(ctx context.Context) []string {
	telemetry.IncCommand("turns")
	act, err := c.Source.Activity(ctx)
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Error("turns command fetch failed", slog.Any("err", err), slog.String("component", "bot"))
		return []string{fetchFailedReply}
	}

	turns := c.Tracker.DetectTurnChanges(act.ActiveGames)
	challenges := c.Tracker.DetectNewChallenges(act.Challenges)

	var lines []string
	for _, change := range turns {
		lines = append(lines, FormatTurn(change))
	}
	for _, ch := range challenges {
		lines = append(lines, FormatChallenge(ch))
	}
	if len(lines) == 0 {
		return []string{"No new turns or challenges."}
	}
	return lines
}

func (c *Commander) handleChallenges(ctx context.Context) []string {
	telemetry.IncCommand("chal")
	act, err := c.Source.Activity(ctx)
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Error("challenge command fetch failed", slog.Any("err", err), slog.String("component", "bot"))
		return []string{fetchFailedReply}
	}
	if len(act.Challenges) == 0 {
		return []string{"No pending challenges."}
	}
	lines := make([]string, 0, len(act.Challenges))
	for _, ch := range act.Challenges {
		lines = append(lines, FormatChallengeLine(ch))
	}
	return lines
}
