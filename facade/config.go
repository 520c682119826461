// Package facade implements the Facade of spec §4.8: the C-callable
// embedding surface (spec §6) a host application links against to run an
// NMOS node in-process. It is a thin shim over internal/node, internal/
// connection, internal/discovery, and internal/api — every operation
// validates its pointer/nullness preconditions, translates string inputs
// into the stores' native string ids, and collapses any error the
// collaborators return into a boolean false rather than propagating a Go
// error across the embedding boundary (spec §7: "all exceptional paths at
// the embedding boundary collapse to a boolean false return").
package facade

import "github.com/NVIDIA/nvnmos/internal/node"

// AssetConfig carries BCP-002-02 asset distinguishing information (spec
// §6). None of the fields is validated; the node model copies Manufacturer,
// Product, and InstanceID into device tags and does not use Functions.
type AssetConfig struct {
	Manufacturer string
	Product      string
	InstanceID   string
	Functions    []string
}

// ActivationCallback is invoked when an IS-05 Connection API request (or a
// host-initiated Activate call) changes a sender's or receiver's active
// transport parameters. sdp carries the updated internal-form SDP, or the
// empty string when the resource is being deactivated. The return value
// reports whether the host could apply the change to its own data plane;
// a false return is logged but does not roll back the already-committed
// connection state (spec §6, §7).
type ActivationCallback func(id, sdp string) bool

// LogCallback receives every log record the node emits, mirroring the
// original embedding API's "(categories, level, text)" callback (spec §6).
// categories lists the originating module (currently always one entry);
// level follows the NMOS numeric severity scale (fatal=40 ... devel=-40).
type LogCallback func(categories []string, level int, message string)

// Config configures a node instance created by Create (spec §6: "Config
// carries hostname, host IPs, HTTP port, label/description, asset tags,
// a seed string, initial sender and receiver SDPs, activation callback,
// log callback, log level, and log categories").
type Config struct {
	// Hostname is the node's fully-qualified host name, used both for the
	// IS-04 self resource and to select mDNS vs unicast DNS-SD discovery
	// (spec §4.7).
	Hostname string
	// HostAddresses lists the IP addresses SDP legs resolve against. At
	// least one is required.
	HostAddresses []string
	// HTTPPort is the port NodeAPI listens on.
	HTTPPort int

	Label       string
	Description string
	AssetTags   *AssetConfig

	// Seed makes UUID derivation repeatable across restarts (internal/idgen).
	// An empty seed is accepted but not recommended, matching the original
	// API's guidance.
	Seed string

	// Senders and Receivers are initial SDPs to add at Create time, the Go
	// equivalent of the original API's senders[]/receivers[] config arrays.
	Senders   []string
	Receivers []string

	// RegistryAddress statically overrides IS-04 registry discovery. Empty
	// enables mDNS/DNS-SD discovery (spec §4.7).
	RegistryAddress string

	ActivationCallback ActivationCallback
	LogCallback        LogCallback
	// LogLevel is the minimum NMOS severity level for which log callbacks
	// are made (fatal=40 ... devel=-40, spec §6).
	LogLevel int
	// LogFormat selects internal/logging's own stdout rendering ("text" or
	// "json", default "text"). The original embedding API has no notion of
	// this — it only ever receives LogCallback's plain text — but this
	// library's own structured-logging stack (spec's AMBIENT STACK) still
	// needs a format to hand to logging.Initialize.
	LogFormat string
	// LogCategories lists the modules to configure at LogLevel; modules not
	// listed default to LogLevel too, since this facade has no notion of a
	// quieter global default distinct from the per-module one.
	LogCategories []string
}

func (c Config) valid() bool {
	return c.Hostname != "" && c.HTTPPort > 0 && len(c.HostAddresses) > 0
}

func (c Config) assetTags() node.AssetTags {
	if c.AssetTags == nil {
		return node.AssetTags{}
	}
	return node.AssetTags{
		Manufacturer: c.AssetTags.Manufacturer,
		Product:      c.AssetTags.Product,
		InstanceID:   c.AssetTags.InstanceID,
		Functions:    c.AssetTags.Functions,
	}
}
