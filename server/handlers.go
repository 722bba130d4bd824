package server

import (
	"time"

	"github.com/daniel-tp/starbot/tracker"
	"github.com/daniel-tp/starbot/watch"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	tracker       *tracker.Tracker
	watcher       *watch.Watcher
	chatConnected func() bool
	platform      string
	version       string
	startedAt     time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(tr *tracker.Tracker, w *watch.Watcher, chatConnected func() bool, platform, version string) *Handlers {
	return &Handlers{
		tracker:       tr,
		watcher:       w,
		chatConnected: chatConnected,
		platform:      platform,
		version:       version,
		startedAt:     time.Now(),
	}
}
