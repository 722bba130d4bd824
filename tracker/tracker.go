// Package tracker keeps the bot's memory of the Star Realms activity feed
// between polls: whose turn each game is on, which challenges and finished
// games have already been announced, and when anything last changed. It holds
// no history beyond that; restarting the process starts the memory over.
package tracker

import (
	"sync"
	"time"

	"github.com/daniel-tp/starbot/starrealms"
)

// TurnChange reports one game whose turn owner differs from what the tracker
// had stored, including first sightings of a game after priming.
type TurnChange struct {
	Game  starrealms.Game
	Owner string
}

// Stats is a read-only snapshot of the tracker's bookkeeping, served by the
// status endpoint and exported as gauges.
type Stats struct {
	TrackedGames   int
	SeenChallenges int
	SeenFinished   int
	LastChange     time.Time
}

// Tracker is safe for concurrent use. Detections take the write lock;
// LastChange and Stats only read. A fetched snapshot should be compared
// outside the lock and handed in whole, so the critical section stays short.
type Tracker struct {
	mu         sync.RWMutex
	turns      map[int64]string
	challenges map[int64]struct{}
	finished   map[int64]struct{}
	lastChange time.Time

	now func() time.Time
}

// New returns an empty tracker with lastChange set to the current time, so
// an account with no activity at all still starts in the fast polling band.
func New() *Tracker {
	t := &Tracker{
		turns:      make(map[int64]string),
		challenges: make(map[int64]struct{}),
		finished:   make(map[int64]struct{}),
		now:        time.Now,
	}
	t.lastChange = t.now()
	return t
}

// Prime absorbs a snapshot without reporting anything, so the backlog that
// predates this process is never announced. It does not touch lastChange.
func (t *Tracker) Prime(act starrealms.Activity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, g := range act.ActiveGames {
		t.turns[g.ID] = g.TurnOwner()
	}
	for _, c := range act.Challenges {
		t.challenges[c.ID] = struct{}{}
	}
	for _, g := range act.FinishedGames {
		t.finished[g.ID] = struct{}{}
	}
}

// DetectTurnChanges compares the games against the stored owners and returns
// the ones whose owner changed or that were seen for the first time, in
// snapshot order. Stored owners are overwritten from the snapshot; games
// missing from it keep their last known owner.
func (t *Tracker) DetectTurnChanges(games []starrealms.Game) []TurnChange {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detectTurnsLocked(games)
}

// DetectNewChallenges returns the challenges not seen before, in snapshot
// order, and marks them seen.
func (t *Tracker) DetectNewChallenges(challenges []starrealms.Challenge) []starrealms.Challenge {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detectChallengesLocked(challenges)
}

// DetectNewFinishedGames returns the finished games not seen before, in
// snapshot order, and marks them seen.
func (t *Tracker) DetectNewFinishedGames(games []starrealms.Game) []starrealms.Game {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detectFinishedLocked(games)
}

// Update runs all three detections against one snapshot in a single critical
// section, in the order turns, challenges, finished games. A reader observes
// either none or all of a snapshot's effects.
func (t *Tracker) Update(act starrealms.Activity) (turns []TurnChange, challenges []starrealms.Challenge, finished []starrealms.Game) {
	t.mu.Lock()
	defer t.mu.Unlock()
	turns = t.detectTurnsLocked(act.ActiveGames)
	challenges = t.detectChallengesLocked(act.Challenges)
	finished = t.detectFinishedLocked(act.FinishedGames)
	return turns, challenges, finished
}

// LastChange reports when a detection last found something new. The watcher
// uses it to decide between the active and idle polling intervals.
func (t *Tracker) LastChange() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastChange
}

// Stats returns the current bookkeeping counts.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Stats{
		TrackedGames:   len(t.turns),
		SeenChallenges: len(t.challenges),
		SeenFinished:   len(t.finished),
		LastChange:     t.lastChange,
	}
}

func (t *Tracker) detectTurnsLocked(games []starrealms.Game) []TurnChange {
	var changes []TurnChange
	for _, g := range games {
		owner := g.TurnOwner()
		prev, known := t.turns[g.ID]
		if !known || prev != owner {
			changes = append(changes, TurnChange{Game: g, Owner: owner})
		}
		t.turns[g.ID] = owner
	}
	if len(changes) > 0 {
		t.lastChange = t.now()
	}
	return changes
}

func (t *Tracker) detectChallengesLocked(challenges []starrealms.Challenge) []starrealms.Challenge {
	var fresh []starrealms.Challenge
	for _, c := range challenges {
		if _, seen := t.challenges[c.ID]; seen {
			continue
		}
		t.challenges[c.ID] = struct{}{}
		fresh = append(fresh, c)
	}
	if len(fresh) > 0 {
		t.lastChange = t.now()
	}
	return fresh
}

func (t *Tracker) detectFinishedLocked(games []starrealms.Game) []starrealms.Game {
	var fresh []starrealms.Game
	for _, g := range games {
		if _, seen := t.finished[g.ID]; seen {
			continue
		}
		t.finished[g.ID] = struct{}{}
		fresh = append(fresh, g)
	}
	if len(fresh) > 0 {
		t.lastChange = t.now()
	}
	return fresh
}
