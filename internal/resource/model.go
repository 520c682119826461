package resource

import "time"

// InterfaceBinding names a host network interface an SDP leg was resolved
// against.
type InterfaceBinding struct {
	Name string
	IP   string
}

// Clock is a node-level clock descriptor (spec §3 invariant 3).
type Clock struct {
	Name      string
	RefType   string // "internal" or "ptp"
	Traceable bool
	GMID      string // only set for ref_type "ptp"
	Domain    *int   // PTP domain number, when known
	Locked    bool
}

// Interface is a node-level network interface descriptor.
type Interface struct {
	Name      string
	ChassisID string
	PortID    string
}

// Service is a node-level advertised service (e.g. the registration API
// the node itself exposes, or a system API client reference).
type Service struct {
	Href string
	Type string
}

// Node is the root resource: one per embedded instance.
type Node struct {
	Envelope
	Hostname   string
	Href       string
	Interfaces []Interface
	Clocks     []Clock
	Services   []Service
}

// NewNode creates a Node envelope. Callers populate the body fields.
func NewNode(id string, now time.Time) *Node {
	n := &Node{Envelope: newEnvelope(id, TypeNode, now)}
	return n
}

// Device hangs off the node and owns sources, senders, and receivers.
type Device struct {
	Envelope
	NodeID    string
	DeviceType string
	Controls  []DeviceControl
	// SenderIDs/ReceiverIDs are the deprecated IS-04 v1.2 arrays kept for
	// clients still reading them (spec §3 invariant 4).
	SenderIDs   []string
	ReceiverIDs []string
}

// DeviceControl is one IS-05 control endpoint advertised by a device.
type DeviceControl struct {
	Href string
	Type string
}

func NewDevice(id, nodeID string, now time.Time) *Device {
	return &Device{Envelope: newEnvelope(id, TypeDevice, now), NodeID: nodeID}
}

// Format is the media format of a source/flow/receiver.
type Format string

const (
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
	FormatData  Format = "data"
	FormatMux   Format = "mux"
)

// AudioChannel describes one channel of an audio source.
type AudioChannel struct {
	Label string
}

// Source is the time-sampled logical origin of a flow.
type Source struct {
	Envelope
	DeviceID  string
	Format    Format
	ClockName string
	GrainRate Rational
	Channels  []AudioChannel // audio only
}

// Rational is a numerator/denominator pair, as NMOS uses for rates.
type Rational struct {
	Numerator   int
	Denominator int
}

func NewSource(id, deviceID string, format Format, now time.Time) *Source {
	return &Source{Envelope: newEnvelope(id, TypeSource, now), DeviceID: deviceID, Format: format}
}

// VideoParams carries the format-specific parameters of a video flow.
type VideoParams struct {
	FrameWidth    int
	FrameHeight   int
	Interlaced    bool
	Colorimetry   string
	ColorSampling string
	TransferChar  string
	BitRateMbps   float64 // JPEG XS only; 0 for uncompressed
	IsJPEGXS      bool
	Profile       string
	Level         string
	Sublevel      string
	PacketTxMode  string
	TransportBitRateMbps float64
}

// AudioParams carries the format-specific parameters of an audio flow.
type AudioParams struct {
	SampleRate      Rational
	SampleDepth     int
	ChannelCount    int
	PacketTime      float64
	MaxPacketTime   float64
}

// AncillaryParams carries SMPTE 291 parameters.
type AncillaryParams struct {
	DID  int
	SDID int
}

// Flow is the codec/parameter layer over a Source.
type Flow struct {
	Envelope
	SourceID  string
	DeviceID  string
	Format    Format
	Video     *VideoParams
	Audio     *AudioParams
	Ancillary *AncillaryParams
}

func NewFlow(id, sourceID, deviceID string, format Format, now time.Time) *Flow {
	return &Flow{Envelope: newEnvelope(id, TypeFlow, now), SourceID: sourceID, DeviceID: deviceID, Format: format}
}

// TransportType is the NMOS transport urn of a sender/receiver.
const TransportRTP = "urn:x-nmos:transport:rtp"

// Sender is an RTP transmit endpoint.
type Sender struct {
	Envelope
	DeviceID          string
	FlowID            string
	Transport         string
	InterfaceBindings []string // interface names, one per leg
	ManifestHref      string
}

func NewSender(id, deviceID, flowID string, now time.Time) *Sender {
	return &Sender{
		Envelope:  newEnvelope(id, TypeSender, now),
		DeviceID:  deviceID,
		FlowID:    flowID,
		Transport: TransportRTP,
	}
}

// CapabilityConstraintSet is one BCP-004-01 constraint set entry: a map of
// NMOS capability urn to an enum of permitted values.
type CapabilityConstraintSet map[string]CapabilityConstraint

// CapabilityConstraint carries either an enum or nothing (spec §4.4 only
// ever produces enum constraints).
type CapabilityConstraint struct {
	Enum []any
}

// Receiver is an RTP receive endpoint.
type Receiver struct {
	Envelope
	DeviceID          string
	Transport         string
	Format            Format
	AcceptedMediaTypes []string
	InterfaceBindings []string
	ConstraintSets    []CapabilityConstraintSet
}

func NewReceiver(id, deviceID string, format Format, now time.Time) *Receiver {
	return &Receiver{
		Envelope:  newEnvelope(id, TypeReceiver, now),
		DeviceID:  deviceID,
		Transport: TransportRTP,
		Format:    format,
	}
}
