package discovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterResourceSendsTypeAndData(t *testing.T) {
	var received resourcePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/x-nmos/registration/v1.3/resource" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewRegistrationClient(server.URL, DefaultSystemGlobal(), discardLogger())
	err := client.RegisterResource(t.Context(), "node", map[string]string{"id": "node-0"})
	if err != nil {
		t.Fatalf("RegisterResource failed: %v", err)
	}
	if received.Type != "node" {
		t.Errorf("received.Type = %q, want node", received.Type)
	}
}

func TestRegisterResourceFailsOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewRegistrationClient(server.URL, SystemGlobal{RetryMinBackoffSeconds: 0, RetryMaxBackoffSeconds: 0}, discardLogger())
	if err := client.RegisterResource(t.Context(), "node", map[string]string{}); err == nil {
		t.Error("expected an error for a 400 response")
	}
}

func TestHeartbeatSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/x-nmos/registration/v1.3/health/nodes/node-0" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRegistrationClient(server.URL, DefaultSystemGlobal(), discardLogger())
	if err := client.Heartbeat(t.Context(), "node-0"); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
}

func TestUnregisterResourceAcceptsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewRegistrationClient(server.URL, DefaultSystemGlobal(), discardLogger())
	if err := client.UnregisterResource(t.Context(), "sender", "sender-0"); err != nil {
		t.Errorf("expected 404 to be treated as success, got %v", err)
	}
}
