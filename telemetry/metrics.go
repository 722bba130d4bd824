// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles          prometheus.Counter
	FetchFailures       prometheus.Counter
	TurnsAnnounced      prometheus.Counter
	ChallengesAnnounced prometheus.Counter
	FinishedAnnounced   prometheus.Counter
	NotifyFailures      prometheus.Counter
	CommandsHandled     *prometheus.CounterVec

	// Histograms (seconds)
	FetchDuration prometheus.Observer
	CycleDuration prometheus.Observer

	// Gauges
	TrackedGamesGauge prometheus.Gauge
	IdleGauge         prometheus.Gauge // 1=idle cadence, 0=active
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "starbot_poll_cycles_total", Help: "Number of polling cycles run"})
		FetchFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "starbot_fetch_failures_total", Help: "Number of activity fetches that failed"})
		TurnsAnnounced = promauto.NewCounter(prometheus.CounterOpts{Name: "starbot_turns_announced_total", Help: "Number of turn changes announced to chat"})
		ChallengesAnnounced = promauto.NewCounter(prometheus.CounterOpts{Name: "starbot_challenges_announced_total", Help: "Number of new challenges announced to chat"})
		FinishedAnnounced = promauto.NewCounter(prometheus.CounterOpts{Name: "starbot_finished_games_announced_total", Help: "Number of finished games announced to chat"})
		NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "starbot_notify_failures_total", Help: "Number of chat sends that failed"})
		CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "starbot_commands_handled_total", Help: "Number of chat commands handled, by command"}, []string{"command"})
		FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "starbot_fetch_duration_seconds", Help: "Activity fetch duration seconds", Buckets: prometheus.DefBuckets})
		CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "starbot_poll_cycle_duration_seconds", Help: "Full polling cycle duration seconds", Buckets: prometheus.DefBuckets})
		TrackedGamesGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "starbot_tracked_games", Help: "Current number of games with a stored turn owner"})
		IdleGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "starbot_idle", Help: "Polling cadence: idle=1 active=0"})
	})
}

// UpdateIdleGauge sets the gauge to 1 when the watcher is on the idle cadence.
func UpdateIdleGauge(idle bool) {
	if IdleGauge == nil {
		return
	}
	if idle {
		IdleGauge.Set(1)
	} else {
		IdleGauge.Set(0)
	}
}

// SetTrackedGames records the current tracked game count.
func SetTrackedGames(n int) {
	if TrackedGamesGauge != nil {
		TrackedGamesGauge.Set(float64(n))
	}
}

// IncCommand counts one handled chat command.
func IncCommand(name string) {
	if CommandsHandled != nil {
		CommandsHandled.WithLabelValues(name).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
