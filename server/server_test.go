package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/daniel-tp/starbot/starrealms"
	"github.com/daniel-tp/starbot/telemetry"
	"github.com/daniel-tp/starbot/tracker"
	"github.com/daniel-tp/starbot/watch"
)

func TestMain(m *testing.M) {
	telemetry.Init()
	os.Exit(m.Run())
}

type stubSource struct{}

func (stubSource) Activity(context.Context) (starrealms.Activity, error) {
	return starrealms.Activity{}, nil
}

type nopAnnouncer struct{}

func (nopAnnouncer) AnnounceTurn(context.Context, tracker.TurnChange) error        { return nil }
func (nopAnnouncer) AnnounceChallenge(context.Context, starrealms.Challenge) error { return nil }
func (nopAnnouncer) AnnounceFinished(context.Context, starrealms.Game) error       { return nil }

// newTestHandlers builds handlers around a watcher that polls an empty feed.
// The watcher is started only when running is true.
func newTestHandlers(t *testing.T, running, chatUp bool) *Handlers {
	t.Helper()
	tr := tracker.New()
	w := watch.New(stubSource{}, tr, nopAnnouncer{}, watch.Config{
		Interval:     time.Hour,
		IdleInterval: time.Hour,
		IdleAfter:    time.Hour,
	})
	if running {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		w.Start(ctx)
	}
	return NewHandlers(tr, w, func() bool { return chatUp }, "discord", "test")
}

func TestHealthz(t *testing.T) {
	h := NewMux(newTestHandlers(t, false, false))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("expected body ok, got %q", rr.Body.String())
	}
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Fatal("expected a generated X-Correlation-ID header")
	}
}

func TestCorrelationHeaderEchoed(t *testing.T) {
	h := NewMux(newTestHandlers(t, false, false))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Fatalf("expected corr-123 echoed back, got %q", got)
	}
}

func TestReadyzNotReadyWatcherStopped(t *testing.T) {
	h := NewMux(newTestHandlers(t, false, true))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d, body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type=application/json, got %q", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "not_ready" {
		t.Fatalf("expected status=not_ready, got %q", resp["status"])
	}
	if resp["failed_check"] != "watcher" {
		t.Fatalf("expected failed_check=watcher, got %q", resp["failed_check"])
	}
}

func TestReadyzNotReadyChatDown(t *testing.T) {
	h := NewMux(newTestHandlers(t, true, false))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d, body=%s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["failed_check"] != "chat" {
		t.Fatalf("expected failed_check=chat, got %q", resp["failed_check"])
	}
}

func TestReadyzReady(t *testing.T) {
	h := NewMux(newTestHandlers(t, true, true))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ready" {
		t.Fatalf("expected status=ready, got %q", resp["status"])
	}
}

func TestStatus(t *testing.T) {
	handlers := newTestHandlers(t, false, true)
	handlers.tracker.Prime(starrealms.Activity{
		ActiveGames:   []starrealms.Game{{ID: 101, OpponentName: "vega"}},
		Challenges:    []starrealms.Challenge{{ID: 7, ChallengerName: "altair"}},
		FinishedGames: []starrealms.Game{{ID: 99}},
	})
	h := NewMux(handlers)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := resp["tracked_games"]; got != float64(1) {
		t.Errorf("tracked_games = %v, want 1", got)
	}
	if got := resp["seen_challenges"]; got != float64(1) {
		t.Errorf("seen_challenges = %v, want 1", got)
	}
	if got := resp["seen_finished"]; got != float64(1) {
		t.Errorf("seen_finished = %v, want 1", got)
	}
	if got := resp["poll_running"]; got != false {
		t.Errorf("poll_running = %v, want false", got)
	}
	if got := resp["poll_interval"]; got != "1h0m0s" {
		t.Errorf("poll_interval = %v, want 1h0m0s", got)
	}
	if got := resp["chat_platform"]; got != "discord" {
		t.Errorf("chat_platform = %v, want discord", got)
	}
	if got := resp["chat_connected"]; got != true {
		t.Errorf("chat_connected = %v, want true", got)
	}
	if got := resp["version"]; got != "test" {
		t.Errorf("version = %v, want test", got)
	}
	if _, ok := resp["last_change"]; !ok {
		t.Error("expected last_change in status response")
	}
}

func TestStatusMethodNotAllowed(t *testing.T) {
	h := NewMux(newTestHandlers(t, false, false))

	req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(newTestHandlers(t, false, false))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "starbot_poll_cycles_total") {
		t.Error("expected starbot_poll_cycles_total in metrics exposition")
	}
}
