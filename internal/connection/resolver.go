package connection

import (
	"github.com/NVIDIA/nvnmos/internal/idgen"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// defaultRTPPort is applied to a still-unresolved sender
// destination_port after the auto resolver runs (spec §4.5 "apply spec
// defaults for any still-unresolved field").
const defaultRTPPort = 5004

// autoResolveSenderLegs resolves source_ip from the endpoint constraint
// enum and destination_ip from the deterministic multicast derivation
// (spec §4.5 "Auto resolver"), then fills any field the PATCH still left
// unresolved with a spec default.
func autoResolveSenderLegs(senderID string, legs []resource.SenderTransportParams, constraints []resource.EndpointConstraints) []resource.SenderTransportParams {
	out := make([]resource.SenderTransportParams, len(legs))
	for i, leg := range legs {
		if leg.SourceIPAuto {
			if i < len(constraints) && len(constraints[i].SourceIPEnum) > 0 {
				leg.SourceIP = constraints[i].SourceIPEnum[0]
			}
			leg.SourceIPAuto = false
		}
		if leg.DestinationIPAuto {
			leg.DestinationIP = idgen.SourceSpecificMulticastV4(senderID, i)
			leg.DestinationIPAuto = false
		}
		if leg.DestinationPortAuto {
			leg.DestinationPort = defaultRTPPort
			leg.DestinationPortAuto = false
		}
		if leg.SourcePortAuto {
			leg.SourcePort = 0
			leg.SourcePortAuto = false
		}
		out[i] = leg
	}
	return out
}

// autoResolveReceiverLegs resolves interface_ip from the endpoint
// constraint enum (spec §4.5, "For RTP receivers: resolve interface_ip
// from the constraint enum; apply spec defaults").
func autoResolveReceiverLegs(legs []resource.ReceiverTransportParams, constraints []resource.EndpointConstraints) []resource.ReceiverTransportParams {
	out := make([]resource.ReceiverTransportParams, len(legs))
	for i, leg := range legs {
		if leg.InterfaceIPAuto {
			if i < len(constraints) && len(constraints[i].InterfaceIPEnum) > 0 {
				leg.InterfaceIP = constraints[i].InterfaceIPEnum[0]
			}
			leg.InterfaceIPAuto = false
		}
		if leg.DestinationPortAuto {
			leg.DestinationPort = defaultRTPPort
			leg.DestinationPortAuto = false
		}
		out[i] = leg
	}
	return out
}
