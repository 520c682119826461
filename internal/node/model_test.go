package node

import (
	"strings"
	"testing"
	"time"

	"github.com/NVIDIA/nvnmos/internal/resource"
)

const videoSenderSDP = "v=0\r\n" +
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

const audioReceiverSDP = "v=0\r\n" +
	"o=- 0 0 IN IP4 192.0.2.20\r\n" +
	"s=SDP for src-0\r\n" +
	"t=0 0\r\n" +
	"a=x-nvnmos-id:recv-0\r\n" +
	"m=audio 5030 RTP/AVP 97\r\n" +
	"c=IN IP4 233.252.0.1\r\n" +
	"a=x-nvnmos-iface-ip:192.0.2.20\r\n" +
	"a=rtpmap:97 L24/48000/2\r\n" +
	"a=ptime:1\r\n"

func fixedNow() time.Time { return time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC) }

func newTestModel(t *testing.T) (*Model, *resource.Store, *resource.Store) {
	t.Helper()
	store := resource.NewStore(fixedNow)
	connStore := resource.NewStore(fixedNow)
	settings := Settings{
		Hostname: "node-1.local",
		HostIPs:  []string{"192.0.2.10", "192.0.2.20"},
		HTTPPort: 8080,
		Label:    "Test Node",
		Assets:   AssetTags{Manufacturer: "Acme", Product: "Widget", InstanceID: "abc123"},
		Seed:     "test-seed",
	}
	m := NewModel(store, connStore, settings, fixedNow)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m, store, connStore
}

func TestInitDerivesStableNodeAndDeviceIDsWithEmptyInterfaces(t *testing.T) {
	m, store, _ := newTestModel(t)

	if m.NodeID() == "" || m.DeviceID() == "" {
		t.Fatalf("expected non-empty node/device ids, got %q / %q", m.NodeID(), m.DeviceID())
	}

	nodeRes, ok := store.Find(m.NodeID(), resource.TypeNode)
	if !ok {
		t.Fatal("node resource not found after Init")
	}
	node := nodeRes.(*resource.Node)
	if len(node.Interfaces) != 0 {
		t.Errorf("Interfaces = %v, want empty before any sender/receiver is added", node.Interfaces)
	}
	if len(node.Clocks) != 1 || node.Clocks[0].RefType != "internal" {
		t.Errorf("Clocks = %+v, want one internal clock", node.Clocks)
	}

	m2, _, _ := newTestModel(t)
	if m2.NodeID() != m.NodeID() || m2.DeviceID() != m.DeviceID() {
		t.Error("node/device ids are not deterministic across Init calls with the same seed")
	}
}

func TestAddSenderUpgradesClockToPTPAndBindsInterface(t *testing.T) {
	m, store, connStore := newTestModel(t)

	senderID, err := m.AddSender(videoSenderSDP)
	if err != nil {
		t.Fatalf("AddSender: %v", err)
	}
	if senderID == "" {
		t.Fatal("AddSender returned empty id")
	}

	senderRes, ok := store.Find(senderID, resource.TypeSender)
	if !ok {
		t.Fatal("sender resource not found")
	}
	sender := senderRes.(*resource.Sender)
	if len(sender.InterfaceBindings) != 1 || sender.InterfaceBindings[0] != "eth0" {
		t.Errorf("InterfaceBindings = %v, want [eth0]", sender.InterfaceBindings)
	}

	flowRes, ok := store.Find(sender.FlowID, resource.TypeFlow)
	if !ok {
		t.Fatal("flow resource not found")
	}
	flow := flowRes.(*resource.Flow)
	if flow.Video == nil || flow.Video.FrameWidth != 1920 || flow.Video.FrameHeight != 1080 {
		t.Errorf("Video params = %+v, want 1920x1080", flow.Video)
	}

	if _, ok := connStore.Find(senderID, resource.TypeConnectionSender); !ok {
		t.Error("connection-sender twin not found")
	}

	nodeRes, _ := store.Find(m.NodeID(), resource.TypeNode)
	node := nodeRes.(*resource.Node)
	if len(node.Interfaces) != 1 || node.Interfaces[0].Name != "eth0" {
		t.Errorf("Interfaces = %v, want [eth0]", node.Interfaces)
	}

	var clock *resource.Clock
	for i := range node.Clocks {
		if node.Clocks[i].Name == internalClockName {
			clock = &node.Clocks[i]
		}
	}
	if clock == nil || clock.RefType != "ptp" {
		t.Fatalf("clock = %+v, want ref_type ptp", clock)
	}
	if clock.GMID != "ac-de-48-23-45-67-01-9f" {
		t.Errorf("GMID = %q, want ac-de-48-23-45-67-01-9f", clock.GMID)
	}
	if clock.Domain == nil || *clock.Domain != 42 {
		t.Errorf("Domain = %v, want 42", clock.Domain)
	}

	deviceRes, _ := store.Find(m.DeviceID(), resource.TypeDevice)
	device := deviceRes.(*resource.Device)
	if len(device.SenderIDs) != 1 || device.SenderIDs[0] != senderID {
		t.Errorf("SenderIDs = %v, want [%s]", device.SenderIDs, senderID)
	}
}

func TestAddSenderRejectsUnboundInterface(t *testing.T) {
	store := resource.NewStore(fixedNow)
	connStore := resource.NewStore(fixedNow)
	settings := Settings{Hostname: "node-1.local", HostIPs: []string{"10.0.0.1"}, HTTPPort: 8080, Seed: "seed"}
	m := NewModel(store, connStore, settings, fixedNow)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, err := m.AddSender(videoSenderSDP)
	if err == nil {
		t.Fatal("expected error for an SDP interface with no matching host interface")
	}
	nodeErr, ok := err.(*Error)
	if !ok || nodeErr.Code != ErrCodeInterfaceMissing {
		t.Errorf("err = %v, want ErrCodeInterfaceMissing", err)
	}
}

func TestAddSenderRejectsDuplicateInternalID(t *testing.T) {
	m, _, _ := newTestModel(t)

	if _, err := m.AddSender(videoSenderSDP); err != nil {
		t.Fatalf("first AddSender: %v", err)
	}
	_, err := m.AddSender(videoSenderSDP)
	if err == nil {
		t.Fatal("expected duplicate-id error on second AddSender with the same internal id")
	}
	nodeErr, ok := err.(*Error)
	if !ok || nodeErr.Code != ErrCodeDuplicateID {
		t.Errorf("err = %v, want ErrCodeDuplicateID", err)
	}
}

func TestAddReceiverBuildsAudioCapabilityConstraintSet(t *testing.T) {
	m, store, connStore := newTestModel(t)

	receiverID, err := m.AddReceiver(audioReceiverSDP)
	if err != nil {
		t.Fatalf("AddReceiver: %v", err)
	}

	recvRes, ok := store.Find(receiverID, resource.TypeReceiver)
	if !ok {
		t.Fatal("receiver resource not found")
	}
	receiver := recvRes.(*resource.Receiver)
	if len(receiver.InterfaceBindings) != 1 || receiver.InterfaceBindings[0] != "eth1" {
		t.Errorf("InterfaceBindings = %v, want [eth1]", receiver.InterfaceBindings)
	}
	if len(receiver.ConstraintSets) != 1 {
		t.Fatalf("ConstraintSets = %v, want one set", receiver.ConstraintSets)
	}
	cs := receiver.ConstraintSets[0]

	channelCount := cs["urn:x-nmos:cap:format:channel_count"]
	if len(channelCount.Enum) != 1 || channelCount.Enum[0] != 2 {
		t.Errorf("channel_count = %v, want [2]", channelCount.Enum)
	}
	sampleRate := cs["urn:x-nmos:cap:format:sample_rate"]
	if len(sampleRate.Enum) != 1 {
		t.Fatalf("sample_rate = %v, want one enum entry", sampleRate.Enum)
	}
	rate, ok := sampleRate.Enum[0].(resource.Rational)
	if !ok || rate.Numerator != 48000 || rate.Denominator != 1 {
		t.Errorf("sample_rate enum = %+v, want {48000 1}", sampleRate.Enum[0])
	}
	sampleDepth := cs["urn:x-nmos:cap:format:sample_depth"]
	if len(sampleDepth.Enum) != 1 || sampleDepth.Enum[0] != 24 {
		t.Errorf("sample_depth = %v, want [24]", sampleDepth.Enum)
	}
	packetTime := cs["urn:x-nmos:cap:format:packet_time"]
	if len(packetTime.Enum) != 1 || packetTime.Enum[0] != float64(1) {
		t.Errorf("packet_time = %v, want [1]", packetTime.Enum)
	}

	if _, ok := connStore.Find(receiverID, resource.TypeConnectionReceiver); !ok {
		t.Error("connection-receiver twin not found")
	}
}

func TestRemoveSenderRevertsClockAndInterfacesThenReAddIsDeterministic(t *testing.T) {
	m, store, connStore := newTestModel(t)

	senderID, err := m.AddSender(videoSenderSDP)
	if err != nil {
		t.Fatalf("AddSender: %v", err)
	}

	if err := m.RemoveSender("sink-0"); err != nil {
		t.Fatalf("RemoveSender: %v", err)
	}

	if _, ok := store.Find(senderID, resource.TypeSender); ok {
		t.Error("sender resource still present after RemoveSender")
	}
	if _, ok := connStore.Find(senderID, resource.TypeConnectionSender); ok {
		t.Error("connection-sender twin still present after RemoveSender")
	}

	nodeRes, _ := store.Find(m.NodeID(), resource.TypeNode)
	node := nodeRes.(*resource.Node)
	if len(node.Interfaces) != 0 {
		t.Errorf("Interfaces = %v, want empty after removing the only sender", node.Interfaces)
	}
	for _, c := range node.Clocks {
		if c.Name == internalClockName && c.RefType != "internal" {
			t.Errorf("clock = %+v, want ref_type internal after removing the only PTP-carrying sender", c)
		}
	}

	deviceRes, _ := store.Find(m.DeviceID(), resource.TypeDevice)
	device := deviceRes.(*resource.Device)
	if len(device.SenderIDs) != 0 {
		t.Errorf("SenderIDs = %v, want empty after removal", device.SenderIDs)
	}

	reAddedID, err := m.AddSender(videoSenderSDP)
	if err != nil {
		t.Fatalf("re-add AddSender: %v", err)
	}
	if reAddedID != senderID {
		t.Errorf("re-added sender id = %q, want the same derived id %q", reAddedID, senderID)
	}
}

func TestRemoveUnknownSenderReturnsNotFound(t *testing.T) {
	m, _, _ := newTestModel(t)
	err := m.RemoveSender("does-not-exist")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	nodeErr, ok := err.(*Error)
	if !ok || nodeErr.Code != ErrCodeNotFound {
		t.Errorf("err = %v, want ErrCodeNotFound", err)
	}
}

func TestAddSenderManifestHrefReferencesSenderID(t *testing.T) {
	m, store, _ := newTestModel(t)
	senderID, err := m.AddSender(videoSenderSDP)
	if err != nil {
		t.Fatalf("AddSender: %v", err)
	}
	senderRes, _ := store.Find(senderID, resource.TypeSender)
	sender := senderRes.(*resource.Sender)
	if !strings.Contains(sender.ManifestHref, senderID) {
		t.Errorf("ManifestHref = %q, want it to reference sender id %q", sender.ManifestHref, senderID)
	}
}
