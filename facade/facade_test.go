package facade

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const senderSDP = "v=0\r\n" +
	"o=- 0 0 IN IP4 192.0.2.10\r\n" +
	"s=SDP for sink-0\r\n" +
	"c=IN IP4 233.252.0.0\r\n" +
	"t=0 0\r\n" +
	"a=x-nvnmos-id:sink-0\r\n" +
	"m=video 5020 RTP/AVP 96\r\n" +
	"c=IN IP4 233.252.0.0\r\n" +
	"a=x-nvnmos-iface-ip:192.0.2.10\r\n" +
	"a=rtpmap:96 raw/90000\r\n" +
	"a=fmtp:96 width=1920; height=1080; exactframerate=60000/1001; sampling=YCbCr-4:2:2; colorimetry=BT709; TCS=SDR\r\n" +
	"a=ts-refclk:ptp=IEEE1588-2008:AC-DE-48-23-45-67-01-9F:42\r\n" +
	"a=mediaclk:direct=0\r\n"

const receiverSDP = "v=0\r\n" +
	"o=- 0 0 IN IP4 192.0.2.20\r\n" +
	"s=SDP for src-0\r\n" +
	"t=0 0\r\n" +
	"a=x-nvnmos-id:recv-0\r\n" +
	"m=audio 5030 RTP/AVP 97\r\n" +
	"c=IN IP4 233.252.0.1\r\n" +
	"a=x-nvnmos-iface-ip:192.0.2.20\r\n" +
	"a=rtpmap:97 L24/48000/2\r\n" +
	"a=ptime:1\r\n"

// fakeRegistry accepts every IS-04 registration/heartbeat request, standing
// in for a discovered registry so Create's discovery.Agent.Start succeeds
// without needing real mDNS/DNS-SD infrastructure.
func fakeRegistry() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func baseConfig(registryURL string) Config {
	return Config{
		Hostname:        "node-1.local",
		HostAddresses:   []string{"192.0.2.10", "192.0.2.20"},
		HTTPPort:        18080,
		Label:           "Test Node",
		AssetTags:       &AssetConfig{Manufacturer: "Acme", Product: "Widget", InstanceID: "abc123", Functions: []string{"Sender"}},
		Seed:            "facade-test-seed",
		RegistryAddress: registryURL,
		LogLevel:        0,
	}
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	if _, ok := Create(Config{}); ok {
		t.Fatal("Create(Config{}) = true, want false for an empty config")
	}
}

func TestCreateAndDestroy(t *testing.T) {
	registry := fakeRegistry()
	defer registry.Close()

	handle, ok := Create(baseConfig(registry.URL))
	if !ok {
		t.Fatal("Create failed")
	}
	if handle == nil {
		t.Fatal("Create returned nil handle on success")
	}

	if !Destroy(handle) {
		t.Error("Destroy returned false")
	}
}

func TestDestroyRejectsNilHandle(t *testing.T) {
	if Destroy(nil) {
		t.Error("Destroy(nil) = true, want false")
	}
}

func TestCreateWithInitialSenderAndReceiver(t *testing.T) {
	registry := fakeRegistry()
	defer registry.Close()

	cfg := baseConfig(registry.URL)
	cfg.HTTPPort = 18081
	cfg.Senders = []string{senderSDP}
	cfg.Receivers = []string{receiverSDP}

	handle, ok := Create(cfg)
	if !ok {
		t.Fatal("Create failed")
	}
	defer Destroy(handle)

	if handle.model.NodeID() == "" {
		t.Error("expected a non-empty node id")
	}
}

func TestAddRemoveSenderAndReceiver(t *testing.T) {
	registry := fakeRegistry()
	defer registry.Close()

	cfg := baseConfig(registry.URL)
	cfg.HTTPPort = 18082
	handle, ok := Create(cfg)
	if !ok {
		t.Fatal("Create failed")
	}
	defer Destroy(handle)

	if !AddSender(handle, senderSDP) {
		t.Fatal("AddSender failed")
	}
	if !AddReceiver(handle, receiverSDP) {
		t.Fatal("AddReceiver failed")
	}
	if !RemoveSender(handle, "sink-0") {
		t.Error("RemoveSender failed")
	}
	if !RemoveReceiver(handle, "recv-0") {
		t.Error("RemoveReceiver failed")
	}
}

func TestAddSenderRejectsEmptySDPAndNilHandle(t *testing.T) {
	if AddSender(nil, senderSDP) {
		t.Error("AddSender(nil, ...) = true, want false")
	}
	registry := fakeRegistry()
	defer registry.Close()
	cfg := baseConfig(registry.URL)
	cfg.HTTPPort = 18083
	handle, ok := Create(cfg)
	if !ok {
		t.Fatal("Create failed")
	}
	defer Destroy(handle)

	if AddSender(handle, "") {
		t.Error("AddSender(handle, \"\") = true, want false")
	}
}

func TestActivateInvokesHostCallback(t *testing.T) {
	registry := fakeRegistry()
	defer registry.Close()

	var mu sync.Mutex
	var gotID, gotSDP string
	cfg := baseConfig(registry.URL)
	cfg.HTTPPort = 18084
	cfg.Senders = []string{senderSDP}
	cfg.ActivationCallback = func(id, sdp string) bool {
		mu.Lock()
		defer mu.Unlock()
		gotID, gotSDP = id, sdp
		return true
	}

	handle, ok := Create(cfg)
	if !ok {
		t.Fatal("Create failed")
	}
	defer Destroy(handle)

	offeredSDP := "v=0\r\n" +
		"o=- 0 0 IN IP4 192.0.2.10\r\n" +
		"s=SDP for sink-0\r\n" +
		"c=IN IP4 233.252.0.5\r\n" +
		"t=0 0\r\n" +
		"a=x-nvnmos-id:sink-0\r\n" +
		"m=video 6000 RTP/AVP 96\r\n" +
		"c=IN IP4 233.252.0.5\r\n" +
		"a=x-nvnmos-iface-ip:192.0.2.10\r\n" +
		"a=rtpmap:96 raw/90000\r\n" +
		"a=fmtp:96 width=1920; height=1080; exactframerate=60000/1001; sampling=YCbCr-4:2:2; colorimetry=BT709; TCS=SDR\r\n" +
		"a=ts-refclk:ptp=IEEE1588-2008:AC-DE-48-23-45-67-01-9F:42\r\n"

	if !Activate(handle, "sink-0", offeredSDP) {
		t.Fatal("Activate failed")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotID != "sink-0" {
		t.Errorf("callback id = %q, want sink-0", gotID)
	}
	if gotSDP == "" {
		t.Error("callback sdp = \"\", want the reconstructed internal-form SDP")
	}
}

func TestActivateRejectsUnknownID(t *testing.T) {
	registry := fakeRegistry()
	defer registry.Close()

	cfg := baseConfig(registry.URL)
	cfg.HTTPPort = 18085
	handle, ok := Create(cfg)
	if !ok {
		t.Fatal("Create failed")
	}
	defer Destroy(handle)

	if Activate(handle, "does-not-exist", senderSDP) {
		t.Error("Activate on an unknown id succeeded, want false")
	}
}
