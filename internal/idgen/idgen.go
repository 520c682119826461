// Package idgen derives the stable identifiers a node needs across
// restarts: resource UUIDs from a seed string, and per-leg multicast
// addresses for the auto-resolver in internal/connection.
package idgen

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Namespace is the fixed UUID namespace all node identifiers are derived
// under. It must never change: doing so would re-identify every resource
// on every node that embeds this library.
var Namespace = uuid.MustParse("18daddcf-a234-4f59-808a-dbf6a42e17bb")

// Kind names the resource type an id is derived for, matching the "kind"
// segment of the name string hashed into the UUID.
type Kind string

const (
	KindNode     Kind = "node"
	KindDevice   Kind = "device"
	KindSource   Kind = "source"
	KindFlow     Kind = "flow"
	KindSender   Kind = "sender"
	KindReceiver Kind = "receiver"
)

// ID derives a version-5 (name-based, SHA-1) UUID for the given seed,
// resource kind, and internal id. For KindNode and KindDevice, internalID
// is the empty string. The result is identical for the same three inputs
// on every platform and across restarts.
//
// Derivation is two-level, matching the original implementation: the seed
// first derives its own namespace under Namespace, and the kind/internalID
// name (which never itself includes the seed) is then hashed under that
// seed namespace. Two nodes with different seeds can never collide even if
// a name happened to repeat, and the same seed reproduces the same ids
// across restarts.
func ID(seed string, kind Kind, internalID string) uuid.UUID {
	seedNamespace := uuid.NewSHA1(Namespace, []byte(seed))
	name := "/x-nmos/node/" + string(kind) + "/" + internalID
	return uuid.NewSHA1(seedNamespace, []byte(name))
}

// SourceSpecificMulticastV4 derives a deterministic IPv4 multicast address
// for one leg of a sender, inside 232.0.1.0/24-232.255.255.0/24. It hashes
// "<senderID>/<leg>", takes the low 32 bits of the digest in network byte
// order, forces the first octet to 232, and sets the low bit of the third
// octet (so the third octet is always odd and never 0).
func SourceSpecificMulticastV4(senderID string, leg int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s/%d", senderID, leg)))
	bits := binary.BigEndian.Uint32(sum[len(sum)-4:])

	var octets [4]byte
	binary.BigEndian.PutUint32(octets[:], bits)
	octets[0] = 232
	octets[2] |= 1

	return fmt.Sprintf("%d.%d.%d.%d", octets[0], octets[1], octets[2], octets[3])
}
