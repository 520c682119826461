package models

import (
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// SenderTransportParamsData is one leg of a sender's IS-05 transport
// parameters, with auto-resolved fields rendered as the literal string
// "auto" per spec §4.2.
type SenderTransportParamsData struct {
	SourceIP        any `json:"source_ip"`
	DestinationIP   any `json:"destination_ip"`
	DestinationPort any `json:"destination_port"`
	SourcePort      any `json:"source_port"`
	RTPEnabled      bool `json:"rtp_enabled"`
}

// ReceiverTransportParamsData is one leg of a receiver's IS-05 transport
// parameters.
type ReceiverTransportParamsData struct {
	InterfaceIP     any  `json:"interface_ip"`
	MulticastIP     any  `json:"multicast_ip"`
	SourceIP        any  `json:"source_ip"`
	DestinationPort any  `json:"destination_port"`
	RTPEnabled      bool `json:"rtp_enabled"`
}

// ActivationData is the IS-05 activation sub-object found in both staged
// and active bodies.
type ActivationData struct {
	Mode             string `json:"mode"`
	RequestedTime    any    `json:"requested_time"`
	ActivationTime   any    `json:"activation_time"`
}

// ConstraintsLegData is one leg's "enum" constraint map, in the shape IS-05
// GET /constraints returns.
type ConstraintsLegData map[string]map[string]any

// SenderStagedData is the body of GET/PATCH
// /single/senders/{id}/staged.
type SenderStagedData struct {
	MasterEnable    bool                        `json:"master_enable"`
	Activation      ActivationData              `json:"activation"`
	TransportParams []SenderTransportParamsData `json:"transport_params"`
	TransportFile   *TransportFileRef           `json:"transport_file,omitempty"`
	ReceiverID      any                         `json:"receiver_id"`
}

// TransportFileRef is the staged sender's transport_file sub-object,
// carrying the synthesized SDP by value (spec §4.2, "data" or "href").
type TransportFileRef struct {
	Data string `json:"data"`
	Type string `json:"type"`
}

// SenderActiveData is the body of GET /single/senders/{id}/active.
type SenderActiveData struct {
	MasterEnable    bool                        `json:"master_enable"`
	Activation      ActivationData              `json:"activation"`
	TransportParams []SenderTransportParamsData `json:"transport_params"`
	ReceiverID      any                         `json:"receiver_id"`
}

// ReceiverStagedData is the body of GET/PATCH
// /single/receivers/{id}/staged.
type ReceiverStagedData struct {
	MasterEnable    bool                          `json:"master_enable"`
	Activation      ActivationData                `json:"activation"`
	TransportParams []ReceiverTransportParamsData `json:"transport_params"`
	TransportFile   TransportFileInput            `json:"transport_file"`
	SenderID        any                           `json:"sender_id"`
}

// TransportFileInput is the receiver staged body's transport_file field,
// carrying the SDP inline as data plus its media type; there is no href form.
type TransportFileInput struct {
	Data *string `json:"data"`
	Type *string `json:"type,omitempty"`
}

// ReceiverActiveData is the body of GET /single/receivers/{id}/active.
type ReceiverActiveData struct {
	MasterEnable    bool                          `json:"master_enable"`
	Activation      ActivationData                `json:"activation"`
	TransportParams []ReceiverTransportParamsData `json:"transport_params"`
	SenderID        any                           `json:"sender_id"`
}

// SenderStagedResponse/SenderActiveResponse/ReceiverStagedResponse/
// ReceiverActiveResponse wrap the above for huma's response convention.
type (
	SenderStagedResponse   struct{ Body SenderStagedData }
	SenderActiveResponse   struct{ Body SenderActiveData }
	ReceiverStagedResponse struct{ Body ReceiverStagedData }
	ReceiverActiveResponse struct{ Body ReceiverActiveData }
)

func autoOr(value string, auto bool) any {
	if auto {
		return "auto"
	}
	return value
}

func autoOrInt(value int, auto bool) any {
	if auto {
		return "auto"
	}
	return value
}

func activationToData(a resource.Activation) ActivationData {
	out := ActivationData{Mode: string(a.Mode)}
	if a.RequestedTime != "" {
		out.RequestedTime = a.RequestedTime
	}
	if a.ActivationTime != "" {
		out.ActivationTime = a.ActivationTime
	}
	return out
}

// ToSenderStagedData converts a resource.ConnectionSender's staged half into
// its wire representation.
func ToSenderStagedData(cs *resource.ConnectionSender, receiverID string) SenderStagedData {
	out := SenderStagedData{
		MasterEnable: cs.MasterEnableStaged,
		Activation:   activationToData(cs.StagedActivation),
	}
	for _, p := range cs.StagedParams {
		out.TransportParams = append(out.TransportParams, SenderTransportParamsData{
			SourceIP:        autoOr(p.SourceIP, p.SourceIPAuto),
			DestinationIP:   autoOr(p.DestinationIP, p.DestinationIPAuto),
			DestinationPort: autoOrInt(p.DestinationPort, p.DestinationPortAuto),
			SourcePort:      autoOrInt(p.SourcePort, p.SourcePortAuto),
			RTPEnabled:      p.RTPEnabled,
		})
	}
	if cs.TransportFile != "" {
		out.TransportFile = &TransportFileRef{Data: cs.TransportFile, Type: "application/sdp"}
	}
	if receiverID != "" {
		out.ReceiverID = receiverID
	}
	return out
}

// ToSenderActiveData converts a resource.ConnectionSender's active half.
func ToSenderActiveData(cs *resource.ConnectionSender, receiverID string) SenderActiveData {
	out := SenderActiveData{
		MasterEnable: cs.MasterEnableActive,
		Activation:   activationToData(cs.ActiveActivation),
	}
	for _, p := range cs.ActiveParams {
		out.TransportParams = append(out.TransportParams, SenderTransportParamsData{
			SourceIP:        autoOr(p.SourceIP, p.SourceIPAuto),
			DestinationIP:   autoOr(p.DestinationIP, p.DestinationIPAuto),
			DestinationPort: autoOrInt(p.DestinationPort, p.DestinationPortAuto),
			SourcePort:      autoOrInt(p.SourcePort, p.SourcePortAuto),
			RTPEnabled:      p.RTPEnabled,
		})
	}
	if receiverID != "" {
		out.ReceiverID = receiverID
	}
	return out
}

// ToReceiverStagedData converts a resource.ConnectionReceiver's staged half.
func ToReceiverStagedData(cr *resource.ConnectionReceiver, senderID string) ReceiverStagedData {
	out := ReceiverStagedData{
		MasterEnable: cr.MasterEnableStaged,
		Activation:   activationToData(cr.StagedActivation),
	}
	for _, p := range cr.StagedParams {
		out.TransportParams = append(out.TransportParams, ReceiverTransportParamsData{
			InterfaceIP:     autoOr(p.InterfaceIP, p.InterfaceIPAuto),
			MulticastIP:     autoOr(p.MulticastIP, p.MulticastIPAuto),
			SourceIP:        autoOr(p.SourceIP, p.SourceIPAuto),
			DestinationPort: autoOrInt(p.DestinationPort, p.DestinationPortAuto),
			RTPEnabled:      p.RTPEnabled,
		})
	}
	if cr.TransportFile != "" {
		data := cr.TransportFile
		typ := "application/sdp"
		out.TransportFile = TransportFileInput{Data: &data, Type: &typ}
	}
	if senderID != "" {
		out.SenderID = senderID
	}
	return out
}

// ToReceiverActiveData converts a resource.ConnectionReceiver's active half.
func ToReceiverActiveData(cr *resource.ConnectionReceiver, senderID string) ReceiverActiveData {
	out := ReceiverActiveData{
		MasterEnable: cr.MasterEnableActive,
		Activation:   activationToData(cr.ActiveActivation),
	}
	for _, p := range cr.ActiveParams {
		out.TransportParams = append(out.TransportParams, ReceiverTransportParamsData{
			InterfaceIP:     autoOr(p.InterfaceIP, p.InterfaceIPAuto),
			MulticastIP:     autoOr(p.MulticastIP, p.MulticastIPAuto),
			SourceIP:        autoOr(p.SourceIP, p.SourceIPAuto),
			DestinationPort: autoOrInt(p.DestinationPort, p.DestinationPortAuto),
			RTPEnabled:      p.RTPEnabled,
		})
	}
	if senderID != "" {
		out.SenderID = senderID
	}
	return out
}

// ToSenderConstraintsData converts a leg's EndpointConstraints into the IS-05
// /constraints wire shape.
func ToSenderConstraintsData(legs []resource.EndpointConstraints) []ConstraintsLegData {
	out := make([]ConstraintsLegData, 0, len(legs))
	for _, leg := range legs {
		m := ConstraintsLegData{}
		if len(leg.SourceIPEnum) > 0 {
			enum := make([]any, len(leg.SourceIPEnum))
			for i, v := range leg.SourceIPEnum {
				enum[i] = v
			}
			m["source_ip"] = map[string]any{"enum": enum}
		}
		out = append(out, m)
	}
	return out
}

// ToReceiverConstraintsData is the receiver-leg equivalent of
// ToSenderConstraintsData.
func ToReceiverConstraintsData(legs []resource.EndpointConstraints) []ConstraintsLegData {
	out := make([]ConstraintsLegData, 0, len(legs))
	for _, leg := range legs {
		m := ConstraintsLegData{}
		if len(leg.InterfaceIPEnum) > 0 {
			enum := make([]any, len(leg.InterfaceIPEnum))
			for i, v := range leg.InterfaceIPEnum {
				enum[i] = v
			}
			m["interface_ip"] = map[string]any{"enum": enum}
		}
		out = append(out, m)
	}
	return out
}
