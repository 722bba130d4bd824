package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HandleStatus returns a lightweight status summary: tracker counts, poll loop
// health, and chat connectivity.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := map[string]any{}

	// Tracker counts
	stats := h.tracker.Stats()
	resp["tracked_games"] = stats.TrackedGames
	resp["seen_challenges"] = stats.SeenChallenges
	resp["seen_finished"] = stats.SeenFinished
	resp["last_change"] = stats.LastChange.UTC().Format(time.RFC3339)

	// Poll loop health
	ws := h.watcher.Status()
	resp["poll_running"] = ws.Running
	resp["poll_idle"] = h.watcher.Idle()
	resp["consecutive_fetch_failures"] = ws.ConsecutiveFailures
	if ws.LastError != "" {
		resp["last_fetch_error"] = ws.LastError
	}
	if !ws.LastAttempt.IsZero() {
		resp["last_fetch_attempt"] = ws.LastAttempt.UTC().Format(time.RFC3339)
	}
	if !ws.LastSuccess.IsZero() {
		resp["last_fetch_success"] = ws.LastSuccess.UTC().Format(time.RFC3339)
	}

	// Configured cadence
	cfg := h.watcher.Config()
	resp["poll_interval"] = cfg.Interval.String()
	resp["idle_poll_interval"] = cfg.IdleInterval.String()
	resp["idle_after"] = cfg.IdleAfter.String()

	resp["chat_platform"] = h.platform
	resp["chat_connected"] = h.chatConnected()
	resp["version"] = h.version
	resp["uptime"] = time.Since(h.startedAt).Round(time.Second).String()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
