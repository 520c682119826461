// Package node implements the NodeModel of spec §4.4: the business rules
// layered over the ResourceStore that create and remove sender/receiver
// bundles and keep the node's interfaces[] and clocks[] invariants (spec
// §3) intact.
package node

// AssetTags carries the host-supplied device identity (spec §6 embedding
// config). Init copies Manufacturer, Product, and InstanceID into device
// tags; Functions is not copied onto the device.
type AssetTags struct {
	Manufacturer string
	Product      string
	InstanceID   string
	Functions    []string
}

// HostInterface is one network interface the embedding host has bound an
// IP address to. SDP legs resolve against these by IP (spec §4.4).
type HostInterface struct {
	Name string
	IP   string
}

// Settings is the subset of the embedding config (spec §6) NodeModel
// needs to materialise the node and device resources at Init.
type Settings struct {
	Hostname    string
	HostIPs     []string
	HTTPPort    int
	Label       string
	Description string
	Assets      AssetTags
	Seed        string
}
