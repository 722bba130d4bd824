package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockStarRealmsServer creates a test server that mocks the Star Realms web
// service endpoints
type MockStarRealmsServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockStarRealmsServer creates a new mock Star Realms API server
func NewMockStarRealmsServer(t *testing.T) *MockStarRealmsServer {
	t.Helper()
	m := &MockStarRealmsServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockLoginResponse adds a handler for the /api/login endpoint that accepts
// any credentials and hands out the given session token
func (m *MockStarRealmsServer) MockLoginResponse(session string) {
	m.Handlers["/api/login"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{"session": session}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockLoginRejected adds a handler for /api/login that rejects all credentials
func (m *MockStarRealmsServer) MockLoginRejected() {
	m.Handlers["/api/login"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad credentials"}`))
	}
}

// MockActivityResponse adds a handler for /api/activity returning the given
// JSON payload
func (m *MockStarRealmsServer) MockActivityResponse(body string) {
	m.Handlers["/api/activity"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

// MockActivityError adds a handler for /api/activity returning the given
// HTTP status
func (m *MockStarRealmsServer) MockActivityError(status int) {
	m.Handlers["/api/activity"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}
}
