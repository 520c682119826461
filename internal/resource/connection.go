package resource

import "time"

// ActivationMode is the IS-05 activation mode.
type ActivationMode string

const (
	ActivationNone             ActivationMode = ""
	ActivationImmediate        ActivationMode = "activate_immediate"
	ActivationScheduledRelative ActivationMode = "activate_scheduled_relative"
	ActivationScheduledAbsolute ActivationMode = "activate_scheduled_absolute"
)

// Activation records the staged or most recent active activation request.
type Activation struct {
	Mode            ActivationMode
	RequestedTime   string // TAI seconds:nanoseconds, for scheduled modes
	ActivationTime  string // when the transition actually took effect
}

// SenderTransportParams is one leg of a sender's transport parameters
// (spec §4.2, "A transport-param object for a sender").
type SenderTransportParams struct {
	SourceIP      string // "" and Auto=true means unresolved/"auto"
	SourceIPAuto  bool
	DestinationIP string
	DestinationIPAuto bool
	DestinationPort int
	DestinationPortAuto bool
	SourcePort    int
	SourcePortAuto bool
	RTPEnabled    bool
}

// ReceiverTransportParams is one leg of a receiver's transport parameters.
type ReceiverTransportParams struct {
	InterfaceIP     string
	InterfaceIPAuto bool
	MulticastIP     string
	MulticastIPAuto bool
	SourceIP        string
	SourceIPAuto    bool
	DestinationPort int
	DestinationPortAuto bool
	RTPEnabled      bool
}

// EndpointConstraints gives, per leg, the enumerated values the
// auto-resolver may pick for that leg's unresolved fields (spec §4.5).
type EndpointConstraints struct {
	SourceIPEnum    []string // sender legs
	InterfaceIPEnum []string // receiver legs
}

// ConnectionSender is the IS-05 connection twin of a Sender.
type ConnectionSender struct {
	Envelope
	SenderID           string
	MasterEnableStaged bool
	MasterEnableActive bool
	StagedParams       []SenderTransportParams
	ActiveParams       []SenderTransportParams
	StagedActivation   Activation
	ActiveActivation   Activation
	EndpointConstraints []EndpointConstraints
	TransportFile      string // cached external-form SDP
	Skeleton           string // the internal-form SDP the sender was added with, used as the transport-file synthesizer's base
}

func NewConnectionSender(id, senderID string, now time.Time) *ConnectionSender {
	return &ConnectionSender{Envelope: newEnvelope(id, TypeConnectionSender, now), SenderID: senderID}
}

// ConnectionReceiver is the IS-05 connection twin of a Receiver.
type ConnectionReceiver struct {
	Envelope
	ReceiverID          string
	MasterEnableStaged  bool
	MasterEnableActive  bool
	StagedParams        []ReceiverTransportParams
	ActiveParams        []ReceiverTransportParams
	StagedActivation    Activation
	ActiveActivation    Activation
	EndpointConstraints []EndpointConstraints
	TransportFile       string // staged transport file (SDP offered by a sender)
	Skeleton            string // the internal-form SDP the receiver was added with
}

func NewConnectionReceiver(id, receiverID string, now time.Time) *ConnectionReceiver {
	return &ConnectionReceiver{Envelope: newEnvelope(id, TypeConnectionReceiver, now), ReceiverID: receiverID}
}
