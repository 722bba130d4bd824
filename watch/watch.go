// Package watch runs the background polling loop: fetch the activity feed,
// feed it through the tracker, announce whatever came out, sleep, repeat.
// The cadence adapts to recent activity; a quiet half hour drops the loop
// from the active interval to the idle one.
package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/daniel-tp/starbot/starrealms"
	"github.com/daniel-tp/starbot/telemetry"
	"github.com/daniel-tp/starbot/tracker"
)

const (
	defaultInterval     = 5 * time.Second
	defaultIdleInterval = 60 * time.Second
	defaultIdleAfter    = 30 * time.Minute
)

// Source fetches a fresh activity snapshot. Fetches happen outside the
// tracker's lock, so a slow remote call never blocks command handlers.
type Source interface {
	Activity(ctx context.Context) (starrealms.Activity, error)
}

// Announcer delivers one notification per detected change. Implementations
// format and send; a failed delivery is counted here but not retried.
type Announcer interface {
	AnnounceTurn(ctx context.Context, change tracker.TurnChange) error
	AnnounceChallenge(ctx context.Context, ch starrealms.Challenge) error
	AnnounceFinished(ctx context.Context, game starrealms.Game) error
}

// Config holds the polling cadence. Zero values fall back to the defaults
// (5s active, 60s idle, idle after 30m of quiet).
type Config struct {
	Interval     time.Duration
	IdleInterval time.Duration
	IdleAfter    time.Duration
}

// Watcher drives the tracker on a timer. Start is a one-shot: chat platforms
// fire their ready event on every reconnect, and only the first one may spawn
// the loop.
type Watcher struct {
	source    Source
	tracker   *tracker.Tracker
	announcer Announcer
	cfg       Config
	now       func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the polling loop.
type Status struct {
	Running             bool
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
}

// IsReady reports whether the loop is running and not failing repeatedly.
func (s Status) IsReady() bool {
	if !s.Running {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// New constructs a Watcher with sane defaults.
func New(source Source, tr *tracker.Tracker, announcer Announcer, cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = defaultIdleInterval
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = defaultIdleAfter
	}
	return &Watcher{
		source:    source,
		tracker:   tr,
		announcer: announcer,
		cfg:       cfg,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start launches the polling loop in the background until the context is
// cancelled or Stop is called. Repeat calls are no-ops.
func (w *Watcher) Start(ctx context.Context) {
	w.startMu.Lock()
	if w.started {
		w.startMu.Unlock()
		slog.Debug("watcher already running", slog.String("component", "watch"))
		return
	}
	w.started = true
	w.startMu.Unlock()

	w.setRunning(true)
	go w.run(ctx)
}

// Stop halts the polling loop.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// Status returns a snapshot of the loop's recent health.
func (w *Watcher) Status() Status {
	w.statusMu.RLock()
	defer w.statusMu.RUnlock()
	return w.status
}

// Idle reports whether the loop is currently on the idle cadence.
func (w *Watcher) Idle() bool {
	return w.now().Sub(w.tracker.LastChange()) >= w.cfg.IdleAfter
}

// Config returns the cadence the watcher runs with, defaults resolved.
func (w *Watcher) Config() Config {
	return w.cfg
}

func (w *Watcher) run(ctx context.Context) {
	slog.Info("watcher started",
		slog.Duration("interval", w.cfg.Interval),
		slog.Duration("idle_interval", w.cfg.IdleInterval),
		slog.Duration("idle_after", w.cfg.IdleAfter),
	)
	for {
		w.pollOnce(ctx)
		select {
		case <-ctx.Done():
			w.setRunning(false)
			slog.Info("watcher stopped")
			return
		case <-w.done:
			w.setRunning(false)
			slog.Info("watcher stopped")
			return
		case <-time.After(w.nextInterval()):
		}
	}
}

// pollOnce runs one cycle: fetch, detect, announce. A failed fetch skips
// detection so the tracker never absorbs a partial observation; detection
// itself happens in one critical section inside the tracker.
func (w *Watcher) pollOnce(ctx context.Context) {
	corr := uuid.New().String()
	ctx = telemetry.WithCorrelation(ctx, corr)
	ctx, span := telemetry.StartSpan(ctx, "watch", "poll.cycle")
	defer span.End()
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "watch"))

	start := time.Now()
	w.recordAttempt(start)
	telemetry.PollCycles.Inc()

	fetchStart := time.Now()
	act, err := w.source.Activity(ctx)
	telemetry.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		telemetry.FetchFailures.Inc()
		telemetry.RecordError(span, err)
		w.recordFailure(err, start)
		logger.Warn("activity fetch failed, skipping cycle", slog.Any("err", err))
		return
	}
	w.recordSuccess(start)

	turns, challenges, finished := w.tracker.Update(act)
	telemetry.SetTrackedGames(w.tracker.Stats().TrackedGames)

	for _, change := range turns {
		if err := w.announcer.AnnounceTurn(ctx, change); err != nil {
			telemetry.NotifyFailures.Inc()
			logger.Error("turn announcement failed", slog.Int64("game_id", change.Game.ID), slog.Any("err", err))
			continue
		}
		telemetry.TurnsAnnounced.Inc()
	}
	for _, ch := range challenges {
		if err := w.announcer.AnnounceChallenge(ctx, ch); err != nil {
			telemetry.NotifyFailures.Inc()
			logger.Error("challenge announcement failed", slog.Int64("challenge_id", ch.ID), slog.Any("err", err))
			continue
		}
		telemetry.ChallengesAnnounced.Inc()
	}
	for _, g := range finished {
		if err := w.announcer.AnnounceFinished(ctx, g); err != nil {
			telemetry.NotifyFailures.Inc()
			logger.Error("finished game announcement failed", slog.Int64("game_id", g.ID), slog.Any("err", err))
			continue
		}
		telemetry.FinishedAnnounced.Inc()
	}

	total := len(turns) + len(challenges) + len(finished)
	span.SetAttributes(attribute.Int("changes", total))
	telemetry.SetSpanSuccess(span)
	telemetry.CycleDuration.Observe(time.Since(start).Seconds())
	if total > 0 {
		logger.Info("changes announced",
			slog.Int("turns", len(turns)),
			slog.Int("challenges", len(challenges)),
			slog.Int("finished", len(finished)),
		)
	} else {
		logger.Debug("no changes detected")
	}
}

// nextInterval picks the cadence from how recently a change was detected.
// Failed fetches never move the tracker's clock, so sustained failures drift
// the loop into the idle cadence on their own.
func (w *Watcher) nextInterval() time.Duration {
	idle := w.now().Sub(w.tracker.LastChange()) >= w.cfg.IdleAfter
	telemetry.UpdateIdleGauge(idle)
	if idle {
		return w.cfg.IdleInterval
	}
	return w.cfg.Interval
}

func (w *Watcher) setRunning(running bool) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	w.status.Running = running
}

func (w *Watcher) recordAttempt(at time.Time) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	w.status.LastAttempt = at
}

func (w *Watcher) recordSuccess(at time.Time) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	w.status.ConsecutiveFailures = 0
	w.status.LastError = ""
	w.status.LastSuccess = at
}

func (w *Watcher) recordFailure(err error, at time.Time) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	w.status.ConsecutiveFailures++
	if err != nil {
		w.status.LastError = err.Error()
	}
	w.status.LastAttempt = at
}
