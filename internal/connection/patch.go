package connection

import "github.com/NVIDIA/nvnmos/internal/resource"

// AutoString is a string-typed IS-05 transport param field that can carry
// the literal value "auto" instead of a concrete value (spec §4.5, "auto
// values left literal").
type AutoString struct {
	Value string
	Auto  bool
}

// AutoInt is the integer-typed equivalent of AutoString (destination_port,
// source_port).
type AutoInt struct {
	Value int
	Auto  bool
}

// SenderLegPatch is one element of a sender PATCH /staged transport_params
// array. A nil field leaves the corresponding staged value untouched —
// this is the "merged into prior staged" behavior of spec §4.5.
type SenderLegPatch struct {
	SourceIP        *AutoString
	DestinationIP   *AutoString
	DestinationPort *AutoInt
	SourcePort      *AutoInt
	RTPEnabled      *bool
}

// ReceiverLegPatch is one element of a receiver PATCH /staged
// transport_params array.
type ReceiverLegPatch struct {
	InterfaceIP     *AutoString
	MulticastIP     *AutoString
	SourceIP        *AutoString
	DestinationPort *AutoInt
	RTPEnabled      *bool
}

// StagedPatch is the body of a PATCH /staged request, generic over sender
// and receiver (spec §4.5: "PATCH /staged → staged (merged into prior
// staged)"). Exactly one of SenderLegs/ReceiverLegs is populated by the
// caller, matching the resource kind being patched.
type StagedPatch struct {
	MasterEnable *bool
	Activation   *ActivationRequest
	SenderLegs   []SenderLegPatch
	ReceiverLegs []ReceiverLegPatch
}

// ActivationRequest mirrors an IS-05 "activation" PATCH object.
type ActivationRequest struct {
	Mode          resource.ActivationMode
	RequestedTime string // TAI seconds:nanoseconds; relative or absolute depending on Mode
}

func applySenderLegPatch(existing resource.SenderTransportParams, patch SenderLegPatch) resource.SenderTransportParams {
	if patch.SourceIP != nil {
		existing.SourceIP, existing.SourceIPAuto = patch.SourceIP.Value, patch.SourceIP.Auto
	}
	if patch.DestinationIP != nil {
		existing.DestinationIP, existing.DestinationIPAuto = patch.DestinationIP.Value, patch.DestinationIP.Auto
	}
	if patch.DestinationPort != nil {
		existing.DestinationPort, existing.DestinationPortAuto = patch.DestinationPort.Value, patch.DestinationPort.Auto
	}
	if patch.SourcePort != nil {
		existing.SourcePort, existing.SourcePortAuto = patch.SourcePort.Value, patch.SourcePort.Auto
	}
	if patch.RTPEnabled != nil {
		existing.RTPEnabled = *patch.RTPEnabled
	}
	return existing
}

func applyReceiverLegPatch(existing resource.ReceiverTransportParams, patch ReceiverLegPatch) resource.ReceiverTransportParams {
	if patch.InterfaceIP != nil {
		existing.InterfaceIP, existing.InterfaceIPAuto = patch.InterfaceIP.Value, patch.InterfaceIP.Auto
	}
	if patch.MulticastIP != nil {
		existing.MulticastIP, existing.MulticastIPAuto = patch.MulticastIP.Value, patch.MulticastIP.Auto
	}
	if patch.SourceIP != nil {
		existing.SourceIP, existing.SourceIPAuto = patch.SourceIP.Value, patch.SourceIP.Auto
	}
	if patch.DestinationPort != nil {
		existing.DestinationPort, existing.DestinationPortAuto = patch.DestinationPort.Value, patch.DestinationPort.Auto
	}
	if patch.RTPEnabled != nil {
		existing.RTPEnabled = *patch.RTPEnabled
	}
	return existing
}

// mergeSenderLegs merges a patch's leg array onto the existing staged legs,
// extending the existing slice if the patch carries more legs (schema
// validation beyond shape is deliberately skipped, per spec §4.5).
func mergeSenderLegs(existing []resource.SenderTransportParams, patch []SenderLegPatch) []resource.SenderTransportParams {
	if patch == nil {
		return existing
	}
	out := make([]resource.SenderTransportParams, len(patch))
	for i, p := range patch {
		var base resource.SenderTransportParams
		if i < len(existing) {
			base = existing[i]
		}
		out[i] = applySenderLegPatch(base, p)
	}
	return out
}

func mergeReceiverLegs(existing []resource.ReceiverTransportParams, patch []ReceiverLegPatch) []resource.ReceiverTransportParams {
	if patch == nil {
		return existing
	}
	out := make([]resource.ReceiverTransportParams, len(patch))
	for i, p := range patch {
		var base resource.ReceiverTransportParams
		if i < len(existing) {
			base = existing[i]
		}
		out[i] = applyReceiverLegPatch(base, p)
	}
	return out
}
