package idgen

import (
	"net"
	"testing"

	"github.com/google/uuid"
)

func TestIDDeterministic(t *testing.T) {
	seed := "nmos-api.local:8080"

	a := ID(seed, KindSender, "sink-0")
	b := ID(seed, KindSender, "sink-0")
	if a != b {
		t.Fatalf("same inputs produced different ids: %s vs %s", a, b)
	}
}

func TestIDDistinctForDistinctTriples(t *testing.T) {
	base := ID("seed-a", KindSender, "sink-0")

	cases := []struct {
		name       string
		seed       string
		kind       Kind
		internalID string
	}{
		{"different seed", "seed-b", KindSender, "sink-0"},
		{"different kind", "seed-a", KindReceiver, "sink-0"},
		{"different internal id", "seed-a", KindSender, "sink-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ID(tc.seed, tc.kind, tc.internalID); got == base {
				t.Fatalf("expected distinct id, got matching id %s", got)
			}
		})
	}
}

func TestIDNodeAndDeviceUseEmptyInternalID(t *testing.T) {
	seed := "nmos-api.local:8080"
	node := ID(seed, KindNode, "")
	device := ID(seed, KindDevice, "")

	if node == device {
		t.Fatalf("node and device ids must differ (kind differs): %s", node)
	}
	// Re-deriving with the same seed must reproduce the same value.
	if again := ID(seed, KindNode, ""); again != node {
		t.Fatalf("node id not stable across re-derivation: %s vs %s", node, again)
	}
}

// TestIDScenario1NodeAndDeviceUUIDs pins the node/device ids of spec §8
// scenario 1 against an independent reimplementation of the two-level
// derivation: a seed namespace is derived first (uuid5(Namespace, seed)),
// then the seed-free "/x-nmos/node/<kind>/<internal_id>" name is hashed
// under that namespace, not under the fixed Namespace directly.
func TestIDScenario1NodeAndDeviceUUIDs(t *testing.T) {
	seed := "nmos-api.local:8080"
	seedNamespace := uuid.NewSHA1(Namespace, []byte(seed))

	wantNode := uuid.NewSHA1(seedNamespace, []byte("/x-nmos/node/node/"))
	if got := ID(seed, KindNode, ""); got != wantNode {
		t.Fatalf("node id = %s, want %s", got, wantNode)
	}

	wantDevice := uuid.NewSHA1(seedNamespace, []byte("/x-nmos/node/device/"))
	if got := ID(seed, KindDevice, ""); got != wantDevice {
		t.Fatalf("device id = %s, want %s", got, wantDevice)
	}
}

// TestIDScenario2SenderUUID pins the sender id of spec §8 scenario 2.
func TestIDScenario2SenderUUID(t *testing.T) {
	seed := "nmos-api.local:8080"
	seedNamespace := uuid.NewSHA1(Namespace, []byte(seed))

	want := uuid.NewSHA1(seedNamespace, []byte("/x-nmos/node/sender/sink-0"))
	if got := ID(seed, KindSender, "sink-0"); got != want {
		t.Fatalf("sender id = %s, want %s", got, want)
	}
}

// TestIDNameExcludesSeed guards against regressing to a single-level
// derivation that concatenates the seed into the hashed name instead of
// deriving a seed namespace: that formula would not match either scenario
// pinned above.
func TestIDNameExcludesSeed(t *testing.T) {
	seed := "nmos-api.local:8080"
	singleLevel := uuid.NewSHA1(Namespace, []byte(seed+"/x-nmos/node/node/"))

	if got := ID(seed, KindNode, ""); got == singleLevel {
		t.Fatalf("id matched the single-level seed+name concatenation; want the two-level seed-namespace derivation")
	}
}

func TestSourceSpecificMulticastV4(t *testing.T) {
	senderID := "3b2a1c5e-0000-5000-8000-000000000000"

	addr := SourceSpecificMulticastV4(senderID, 0)
	ip := net.ParseIP(addr)
	if ip == nil {
		t.Fatalf("not a valid IP: %q", addr)
	}
	v4 := ip.To4()
	if v4 == nil {
		t.Fatalf("not an IPv4 address: %q", addr)
	}
	if v4[0] != 232 {
		t.Fatalf("expected first octet 232, got %d", v4[0])
	}
	if v4[2]&1 != 1 {
		t.Fatalf("expected low bit of third octet set, got octet %d", v4[2])
	}

	// Different legs of the same sender must (overwhelmingly) differ.
	addr2 := SourceSpecificMulticastV4(senderID, 1)
	if addr == addr2 {
		t.Fatalf("legs 0 and 1 produced the same multicast address: %s", addr)
	}

	// Deterministic across calls.
	if again := SourceSpecificMulticastV4(senderID, 0); again != addr {
		t.Fatalf("not deterministic: %s vs %s", addr, again)
	}
}
