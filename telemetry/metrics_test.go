package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestInitRegistersInstruments(t *testing.T) {
	Init()
	// Init is guarded by sync.Once; a second call must not re-register (panics otherwise).
	Init()

	if PollCycles == nil {
		t.Error("PollCycles counter not initialized")
	}
	if FetchFailures == nil {
		t.Error("FetchFailures counter not initialized")
	}
	if TurnsAnnounced == nil || ChallengesAnnounced == nil || FinishedAnnounced == nil {
		t.Error("announcement counters not initialized")
	}
	if NotifyFailures == nil {
		t.Error("NotifyFailures counter not initialized")
	}
	if CommandsHandled == nil {
		t.Error("CommandsHandled counter vec not initialized")
	}
	if FetchDuration == nil || CycleDuration == nil {
		t.Error("duration histograms not initialized")
	}
	if TrackedGamesGauge == nil || IdleGauge == nil {
		t.Error("gauges not initialized")
	}
}

func TestIdleGauge(t *testing.T) {
	Init()

	UpdateIdleGauge(true)
	if got := gaugeValue(t, IdleGauge); got != 1 {
		t.Errorf("idle gauge = %v, want 1", got)
	}
	UpdateIdleGauge(false)
	if got := gaugeValue(t, IdleGauge); got != 0 {
		t.Errorf("idle gauge = %v, want 0", got)
	}
}

func TestSetTrackedGames(t *testing.T) {
	Init()

	SetTrackedGames(7)
	if got := gaugeValue(t, TrackedGamesGauge); got != 7 {
		t.Errorf("tracked games gauge = %v, want 7", got)
	}
	SetTrackedGames(0)
	if got := gaugeValue(t, TrackedGamesGauge); got != 0 {
		t.Errorf("tracked games gauge = %v, want 0", got)
	}
}

func TestIncCommand(t *testing.T) {
	Init()

	IncCommand("version")
	IncCommand("version")

	m := &dto.Metric{}
	if err := CommandsHandled.WithLabelValues("version").Write(m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if m.Counter == nil || *m.Counter.Value < 2 {
		t.Errorf("commands_handled{command=version} = %v, want >= 2", m.Counter)
	}
}

func TestTimeFuncRecordsObservation(t *testing.T) {
	testHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration",
		Buckets: prometheus.DefBuckets,
	})
	prometheus.MustRegister(testHistogram)
	defer prometheus.Unregister(testHistogram)

	executed := false
	duration := TimeFunc(testHistogram, func() {
		time.Sleep(10 * time.Millisecond)
		executed = true
	})

	if !executed {
		t.Error("TimeFunc did not execute provided function")
	}
	if duration < 10*time.Millisecond {
		t.Errorf("TimeFunc duration = %v, want >= 10ms", duration)
	}

	m := &dto.Metric{}
	if err := testHistogram.Write(m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if m.Histogram == nil || *m.Histogram.SampleCount == 0 {
		t.Error("TimeFunc did not record observation in histogram")
	}
}

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation(empty ctx) = %q, want empty", got)
	}

	ctx = WithCorrelation(ctx, "corr-123")
	if got := GetCorrelation(ctx); got != "corr-123" {
		t.Errorf("GetCorrelation() = %q, want corr-123", got)
	}

	if LoggerWithCorr(ctx) == nil {
		t.Error("LoggerWithCorr returned nil for ctx with correlation")
	}
	if LoggerWithCorr(context.Background()) == nil {
		t.Error("LoggerWithCorr returned nil for plain ctx")
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if m.Gauge == nil || m.Gauge.Value == nil {
		t.Fatal("gauge metric is nil")
	}
	return *m.Gauge.Value
}
