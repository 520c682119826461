package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NVIDIA/nvnmos/internal/connection"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

func newTestServer(t *testing.T) (*Server, *resource.Store, *resource.Store) {
	t.Helper()
	now := time.Unix(5000, 0)
	store := resource.NewStore(func() time.Time { return now })
	connStore := resource.NewStore(func() time.Time { return now })

	n := resource.NewNode("node-0", now)
	n.Label = "Test Node"
	if err := store.Insert(n); err != nil {
		t.Fatalf("insert node: %v", err)
	}
	device := resource.NewDevice("device-0", "node-0", now)
	if err := store.Insert(device); err != nil {
		t.Fatalf("insert device: %v", err)
	}
	source := resource.NewSource("source-0", "device-0", resource.FormatVideo, now)
	if err := store.Insert(source); err != nil {
		t.Fatalf("insert source: %v", err)
	}
	flow := resource.NewFlow("flow-0", "source-0", "device-0", resource.FormatVideo, now)
	if err := store.Insert(flow); err != nil {
		t.Fatalf("insert flow: %v", err)
	}
	sender := resource.NewSender("sender-0", "device-0", "flow-0", now)
	if err := store.Insert(sender); err != nil {
		t.Fatalf("insert sender: %v", err)
	}
	receiver := resource.NewReceiver("receiver-0", "device-0", resource.FormatVideo, now)
	if err := store.Insert(receiver); err != nil {
		t.Fatalf("insert receiver: %v", err)
	}

	cs := resource.NewConnectionSender("sender-0", "sender-0", now)
	cs.TransportFile = "v=0\r\n"
	cs.Skeleton = "v=0\r\no=- 0 0 IN IP4 192.0.2.10\r\ns=-\r\nt=0 0\r\na=x-nvnmos-id:sink-0\r\n" +
		"m=video 5020 RTP/AVP 96\r\nc=IN IP4 233.252.0.0\r\na=x-nvnmos-iface-ip:192.0.2.10\r\n"
	if err := connStore.Insert(cs); err != nil {
		t.Fatalf("insert connection sender: %v", err)
	}
	cr := resource.NewConnectionReceiver("receiver-0", "receiver-0", now)
	if err := connStore.Insert(cr); err != nil {
		t.Fatalf("insert connection receiver: %v", err)
	}

	engine := connection.NewEngine(store, connStore, func() time.Time { return now }, nil)

	s := NewServer(&Options{
		Addr:      "127.0.0.1:0",
		Store:     store,
		ConnStore: connStore,
		Engine:    engine,
	})
	return s, store, connStore
}

func TestGetSelf(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.GetMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/x-nmos/node/v1.3/self")
	if err != nil {
		t.Fatalf("GET self: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != "node-0" || body.Label != "Test Node" {
		t.Errorf("got %+v, want id=node-0 label=Test Node", body)
	}
}

func TestListDevicesAndGetDevice(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.GetMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/x-nmos/node/v1.3/devices/")
	if err != nil {
		t.Fatalf("GET devices: %v", err)
	}
	defer resp.Body.Close()
	var ids []string
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ids) != 1 || ids[0] != "device-0" {
		t.Errorf("ids = %v, want [device-0]", ids)
	}

	resp2, err := http.Get(srv.URL + "/x-nmos/node/v1.3/devices/device-0")
	if err != nil {
		t.Fatalf("GET device: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp2.StatusCode)
	}
}

func TestGetDeviceNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.GetMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/x-nmos/node/v1.3/devices/does-not-exist")
	if err != nil {
		t.Fatalf("GET device: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPatchSenderStagedActivatesImmediately(t *testing.T) {
	s, _, connStore := newTestServer(t)
	srv := httptest.NewServer(s.GetMux())
	defer srv.Close()

	body := `{"master_enable": true, "activation": {"mode": "activate_immediate"}}`
	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/x-nmos/connection/v1.1/single/senders/sender-0/staged", strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH staged: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	r, ok := connStore.Find("sender-0", resource.TypeConnectionSender)
	if !ok {
		t.Fatal("connection sender missing")
	}
	cs := r.(*resource.ConnectionSender)
	if !cs.MasterEnableActive {
		t.Error("expected MasterEnableActive = true after immediate activation")
	}
}

func TestGetSenderTransportFile(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.GetMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/x-nmos/connection/v1.1/single/senders/sender-0/transportfile")
	if err != nil {
		t.Fatalf("GET transportfile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/sdp" {
		t.Errorf("Content-Type = %q, want application/sdp", ct)
	}
}

func TestTraceRejected(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.GetMux())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodTrace, srv.URL+"/x-nmos/node/v1.3/self", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("TRACE self: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
