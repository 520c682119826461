package discovery

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/NVIDIA/nvnmos/internal/resource"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestStoreWithNode(t *testing.T, now time.Time) (*resource.Store, string) {
	t.Helper()
	store := resource.NewStore(func() time.Time { return now })
	n := resource.NewNode("node-0", now)
	n.Label = "Test Node"
	if err := store.Insert(n); err != nil {
		t.Fatalf("failed to insert node: %v", err)
	}
	return store, n.ID
}

func TestAgentStartRegistersResourceTree(t *testing.T) {
	var mu sync.Mutex
	var registeredTypes []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/x-nmos/registration/v1.3/resource" {
			var payload resourcePayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("failed to decode registration payload: %v", err)
			}
			mu.Lock()
			registeredTypes = append(registeredTypes, payload.Type)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	now := time.Unix(1000, 0)
	store, nodeID := newTestStoreWithNode(t, now)
	device := resource.NewDevice("device-0", nodeID, now)
	if err := store.Insert(device); err != nil {
		t.Fatalf("failed to insert device: %v", err)
	}

	agent := NewAgent(store, nodeID, "node-0.example.com", server.URL, discardLogger())
	defer agent.Stop()

	if err := agent.Start(t.Context()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(registeredTypes) != 2 || registeredTypes[0] != "node" || registeredTypes[1] != "device" {
		t.Errorf("registeredTypes = %v, want [node device] in that order", registeredTypes)
	}
}

func TestAgentMirrorsChangeEventsAfterStart(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/x-nmos/registration/v1.3/resource" {
			var payload resourcePayload
			json.NewDecoder(r.Body).Decode(&payload)
			mu.Lock()
			seen[payload.Type]++
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	now := time.Unix(2000, 0)
	store, nodeID := newTestStoreWithNode(t, now)

	agent := NewAgent(store, nodeID, "node-0.example.com", server.URL, discardLogger())
	defer agent.Stop()

	if err := agent.Start(t.Context()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	device := resource.NewDevice("device-1", nodeID, now)
	if err := store.Insert(device); err != nil {
		t.Fatalf("failed to insert device: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		count := seen["device"]
		mu.Unlock()
		if count >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if seen["device"] < 1 {
		t.Errorf("expected device insertion to be mirrored to registry, seen = %v", seen)
	}
}

func TestAgentHeartbeatSentPeriodically(t *testing.T) {
	var mu sync.Mutex
	heartbeats := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/x-nmos/registration/v1.3/resource":
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost:
			mu.Lock()
			heartbeats++
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	now := time.Unix(3000, 0)
	store, nodeID := newTestStoreWithNode(t, now)

	agent := NewAgent(store, nodeID, "node-0.example.com", server.URL, discardLogger())
	agent.UpdateSystemGlobal(SystemGlobal{HeartbeatIntervalSeconds: 1})
	defer agent.Stop()

	if err := agent.Start(t.Context()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		count := heartbeats
		mu.Unlock()
		if count >= 1 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if heartbeats < 1 {
		t.Error("expected at least one heartbeat to be sent")
	}
}
