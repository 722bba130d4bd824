package bot

import (
	"fmt"

	"github.com/daniel-tp/starbot/starrealms"
	"github.com/daniel-tp/starbot/tracker"
)

// FormatTurn renders a turn announcement with each side's authority total.
func FormatTurn(change tracker.TurnChange) string {
	g := change.Game
	return fmt.Sprintf("Player's Turn: %s (%d) in game %d vs %s (%d)",
		change.Owner, g.ClientData.AuthorityOf(change.Owner),
		g.ID,
		g.OpponentName, g.ClientData.AuthorityOf(g.OpponentName))
}

// FormatChallenge renders a new-challenge announcement.
func FormatChallenge(ch starrealms.Challenge) string {
	return fmt.Sprintf("%s is challenging %s to a game of Star Realms! 🚀🚀🚀", ch.ChallengerName, ch.OpponentName)
}

// FormatFinished renders a finished-game announcement with final authority.
func FormatFinished(g starrealms.Game) string {
	cd := g.ClientData
	return fmt.Sprintf("Game %d just finished, with %s at %d and %s at %d", g.ID, cd.P1Name, cd.P1Auth, cd.P2Name, cd.P2Auth)
}

// FormatChallengeLine renders one line of the challenge-list command reply.
func FormatChallengeLine(ch starrealms.Challenge) string {
	return fmt.Sprintf("Challenge from: %s to %s", ch.ChallengerName, ch.OpponentName)
}
