package starrealms

// Activity is one fetch's full view of the account's standing with the
// service: games waiting on a move, open challenges, and recently finished
// games. Every fetch decodes a fresh value; nothing is shared between calls.
type Activity struct {
	ActiveGames   []Game      `json:"activegames"`
	Challenges    []Challenge `json:"challenges"`
	FinishedGames []Game      `json:"finishedgames"`
}

// Game is a single entry from the activity feed. The service uses the same
// shape for active and finished games; actionneeded carries no meaning once a
// game is finished.
type Game struct {
	ID           int64      `json:"id"`
	OpponentName string     `json:"opponentname"`
	ActionNeeded bool       `json:"actionneeded"`
	ClientData   ClientData `json:"clientdata"`
}

// ClientData is the per-game display state the game client stores alongside
// each entry: both sides' display names and current authority totals. Side 1
// is always the authenticated account.
type ClientData struct {
	P1Name string `json:"p1name"`
	P1Auth int    `json:"p1auth"`
	P2Name string `json:"p2name"`
	P2Auth int    `json:"p2auth"`
}

// AuthorityOf returns the authority total recorded for the named player, or
// zero when the name matches neither side.
func (c ClientData) AuthorityOf(name string) int {
	switch name {
	case c.P1Name:
		return c.P1Auth
	case c.P2Name:
		return c.P2Auth
	}
	return 0
}

// Challenge is a pending invitation to start a game.
type Challenge struct {
	ID             int64  `json:"id"`
	ChallengerName string `json:"challengername"`
	OpponentName   string `json:"opponentname"`
}

// TurnOwner returns the player the game is currently waiting on. The feed
// sets actionneeded on the account's own entry while the opponent's move is
// outstanding, so the flag points at the other side; without it the account
// itself is to act.
// TODO: confirm actionneeded polarity against the live service; it is known
// from observation only.
func (g Game) TurnOwner() string {
	if g.ActionNeeded {
		return g.OpponentName
	}
	return g.ClientData.P1Name
}
