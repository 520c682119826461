// Package models defines the IS-04/IS-05 wire-format DTOs NodeAPI serializes
// and the DiscoveryAgent mirrors to the registry, following the teacher's
// api/models sub-package convention of one JSON-tagged struct per resource
// plus a huma-friendly `{Body T}` response wrapper.
package models

import (
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// NodeData is the IS-04 Node resource JSON body.
type NodeData struct {
	ID          string              `json:"id" doc:"Node UUID"`
	Version     string              `json:"version" doc:"Resource version, seconds:nanoseconds"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Tags        map[string][]string `json:"tags"`
	Hostname    string              `json:"hostname"`
	Href        string              `json:"href"`
	Interfaces  []InterfaceData     `json:"interfaces"`
	Clocks      []ClockData         `json:"clocks"`
	Services    []ServiceData       `json:"services"`
}

// InterfaceData is one entry of Node.interfaces[].
type InterfaceData struct {
	Name      string `json:"name"`
	ChassisID string `json:"chassis_id"`
	PortID    string `json:"port_id"`
}

// ClockData is one entry of Node.clocks[].
type ClockData struct {
	Name      string `json:"name"`
	RefType   string `json:"ref_type"`
	Traceable bool   `json:"traceable"`
	GMID      string `json:"gmid,omitempty"`
	Domain    *int   `json:"domain,omitempty"`
	Locked    bool   `json:"locked"`
}

// ServiceData is one entry of Node.services[].
type ServiceData struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

// NodeResponse wraps NodeData for huma's response-body convention.
type NodeResponse struct {
	Body NodeData
}

// ToNodeData converts a resource.Node into its wire representation.
func ToNodeData(n *resource.Node) NodeData {
	env := n.Envelope()
	out := NodeData{
		ID:          env.ID,
		Version:     env.Version.String(),
		Label:       env.Label,
		Description: env.Description,
		Tags:        env.Tags,
		Hostname:    n.Hostname,
		Href:        n.Href,
	}
	for _, i := range n.Interfaces {
		out.Interfaces = append(out.Interfaces, InterfaceData{Name: i.Name, ChassisID: i.ChassisID, PortID: i.PortID})
	}
	for _, c := range n.Clocks {
		out.Clocks = append(out.Clocks, ClockData{Name: c.Name, RefType: c.RefType, Traceable: c.Traceable, GMID: c.GMID, Domain: c.Domain, Locked: c.Locked})
	}
	for _, s := range n.Services {
		out.Services = append(out.Services, ServiceData{Href: s.Href, Type: s.Type})
	}
	return out
}

// DeviceData is the IS-04 Device resource JSON body, including the
// deprecated senders[]/receivers[] arrays IS-04 v1.2 clients still read
// (SPEC_FULL.md supplemented feature).
type DeviceData struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Tags        map[string][]string `json:"tags"`
	NodeID      string              `json:"node_id"`
	Type        string              `json:"type"`
	Controls    []ControlData       `json:"controls"`
	Senders     []string            `json:"senders"`
	Receivers   []string            `json:"receivers"`
}

// ControlData is one entry of Device.controls[].
type ControlData struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

// DeviceResponse wraps DeviceData.
type DeviceResponse struct {
	Body DeviceData
}

// ToDeviceData converts a resource.Device into its wire representation.
func ToDeviceData(d *resource.Device) DeviceData {
	env := d.Envelope()
	out := DeviceData{
		ID:          env.ID,
		Version:     env.Version.String(),
		Label:       env.Label,
		Description: env.Description,
		Tags:        env.Tags,
		NodeID:      d.NodeID,
		Type:        d.DeviceType,
		Senders:     d.SenderIDs,
		Receivers:   d.ReceiverIDs,
	}
	for _, c := range d.Controls {
		out.Controls = append(out.Controls, ControlData{Href: c.Href, Type: c.Type})
	}
	return out
}

// SourceData is the IS-04 Source resource JSON body.
type SourceData struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Tags        map[string][]string `json:"tags"`
	DeviceID    string              `json:"device_id"`
	Format      string              `json:"format"`
	ClockName   string              `json:"clock_name"`
	GrainRate   RationalData        `json:"grain_rate"`
	Channels    []AudioChannelData  `json:"channels,omitempty"`
}

// RationalData is a numerator/denominator pair.
type RationalData struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// AudioChannelData is one entry of Source.channels[].
type AudioChannelData struct {
	Label string `json:"label"`
}

// SourceResponse wraps SourceData.
type SourceResponse struct {
	Body SourceData
}

// ToSourceData converts a resource.Source into its wire representation.
func ToSourceData(s *resource.Source) SourceData {
	env := s.Envelope()
	out := SourceData{
		ID:          env.ID,
		Version:     env.Version.String(),
		Label:       env.Label,
		Description: env.Description,
		Tags:        env.Tags,
		DeviceID:    s.DeviceID,
		Format:      string(s.Format),
		ClockName:   s.ClockName,
		GrainRate:   RationalData{Numerator: s.GrainRate.Numerator, Denominator: s.GrainRate.Denominator},
	}
	for _, c := range s.Channels {
		out.Channels = append(out.Channels, AudioChannelData{Label: c.Label})
	}
	return out
}

// FlowData is the IS-04 Flow resource JSON body. The format-specific
// sections are omitted (encoding/json's omitempty leaves them out of the
// wire body) unless the flow carries that format.
type FlowData struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Tags        map[string][]string `json:"tags"`
	SourceID    string              `json:"source_id"`
	DeviceID    string              `json:"device_id"`
	Format      string              `json:"format"`
	Video       *VideoData          `json:"video,omitempty"`
	Audio       *AudioData          `json:"audio,omitempty"`
	Ancillary   *AncillaryData      `json:"ancillary,omitempty"`
}

// VideoData carries a video flow's format-specific parameters.
type VideoData struct {
	FrameWidth           int     `json:"frame_width"`
	FrameHeight          int     `json:"frame_height"`
	Interlaced           bool    `json:"interlace_mode_progressive_false"`
	Colorimetry          string  `json:"colorspace"`
	ColorSampling        string  `json:"components"`
	TransferChar         string  `json:"transfer_characteristic"`
	IsJPEGXS             bool    `json:"is_jxsv"`
	BitRateMbps          float64 `json:"bit_rate,omitempty"`
	Profile              string  `json:"profile,omitempty"`
	Level                string  `json:"level,omitempty"`
	Sublevel             string  `json:"sublevel,omitempty"`
	PacketTxMode         string  `json:"packetization_mode,omitempty"`
	TransportBitRateMbps float64 `json:"transport_bit_rate,omitempty"`
}

// AudioData carries an audio flow's format-specific parameters.
type AudioData struct {
	SampleRate    RationalData `json:"sample_rate"`
	SampleDepth   int          `json:"bit_depth"`
	ChannelCount  int          `json:"channel_count"`
	PacketTime    float64      `json:"packet_time"`
	MaxPacketTime float64      `json:"max_packet_time"`
}

// AncillaryData carries a SMPTE 291 ancillary flow's parameters.
type AncillaryData struct {
	DID  int `json:"did_sdid_did"`
	SDID int `json:"did_sdid_sdid"`
}

// FlowResponse wraps FlowData.
type FlowResponse struct {
	Body FlowData
}

// ToFlowData converts a resource.Flow into its wire representation.
func ToFlowData(f *resource.Flow) FlowData {
	env := f.Envelope()
	out := FlowData{
		ID:          env.ID,
		Version:     env.Version.String(),
		Label:       env.Label,
		Description: env.Description,
		Tags:        env.Tags,
		SourceID:    f.SourceID,
		DeviceID:    f.DeviceID,
		Format:      string(f.Format),
	}
	if f.Video != nil {
		out.Video = &VideoData{
			FrameWidth:           f.Video.FrameWidth,
			FrameHeight:          f.Video.FrameHeight,
			Interlaced:           f.Video.Interlaced,
			Colorimetry:          f.Video.Colorimetry,
			ColorSampling:        f.Video.ColorSampling,
			TransferChar:         f.Video.TransferChar,
			IsJPEGXS:             f.Video.IsJPEGXS,
			BitRateMbps:          f.Video.BitRateMbps,
			Profile:              f.Video.Profile,
			Level:                f.Video.Level,
			Sublevel:             f.Video.Sublevel,
			PacketTxMode:         f.Video.PacketTxMode,
			TransportBitRateMbps: f.Video.TransportBitRateMbps,
		}
	}
	if f.Audio != nil {
		out.Audio = &AudioData{
			SampleRate:    RationalData{Numerator: f.Audio.SampleRate.Numerator, Denominator: f.Audio.SampleRate.Denominator},
			SampleDepth:   f.Audio.SampleDepth,
			ChannelCount:  f.Audio.ChannelCount,
			PacketTime:    f.Audio.PacketTime,
			MaxPacketTime: f.Audio.MaxPacketTime,
		}
	}
	if f.Ancillary != nil {
		out.Ancillary = &AncillaryData{DID: f.Ancillary.DID, SDID: f.Ancillary.SDID}
	}
	return out
}

// SenderData is the IS-04 Sender resource JSON body.
type SenderData struct {
	ID                string              `json:"id"`
	Version           string              `json:"version"`
	Label             string              `json:"label"`
	Description       string              `json:"description"`
	Tags              map[string][]string `json:"tags"`
	DeviceID          string              `json:"device_id"`
	FlowID            string              `json:"flow_id"`
	Transport         string              `json:"transport"`
	InterfaceBindings []string            `json:"interface_bindings"`
	ManifestHref      string              `json:"manifest_href"`
}

// SenderResponse wraps SenderData.
type SenderResponse struct {
	Body SenderData
}

// ToSenderData converts a resource.Sender into its wire representation.
func ToSenderData(s *resource.Sender) SenderData {
	env := s.Envelope()
	return SenderData{
		ID:                env.ID,
		Version:           env.Version.String(),
		Label:             env.Label,
		Description:       env.Description,
		Tags:              env.Tags,
		DeviceID:          s.DeviceID,
		FlowID:            s.FlowID,
		Transport:         s.Transport,
		InterfaceBindings: s.InterfaceBindings,
		ManifestHref:      s.ManifestHref,
	}
}

// ReceiverData is the IS-04 Receiver resource JSON body.
type ReceiverData struct {
	ID                 string                    `json:"id"`
	Version            string                    `json:"version"`
	Label              string                    `json:"label"`
	Description        string                    `json:"description"`
	Tags               map[string][]string       `json:"tags"`
	DeviceID           string                    `json:"device_id"`
	Transport          string                    `json:"transport"`
	Format             string                    `json:"format"`
	AcceptedMediaTypes []string                  `json:"caps_media_types"`
	InterfaceBindings  []string                  `json:"interface_bindings"`
	ConstraintSets     []map[string]ConstraintData `json:"constraint_sets,omitempty"`
}

// ConstraintData is one BCP-004-01 capability constraint (spec §4.4: only
// enum constraints are produced).
type ConstraintData struct {
	Enum []any `json:"enum,omitempty"`
}

// ReceiverResponse wraps ReceiverData.
type ReceiverResponse struct {
	Body ReceiverData
}

// ToReceiverData converts a resource.Receiver into its wire representation.
func ToReceiverData(r *resource.Receiver) ReceiverData {
	env := r.Envelope()
	out := ReceiverData{
		ID:                 env.ID,
		Version:            env.Version.String(),
		Label:              env.Label,
		Description:        env.Description,
		Tags:               env.Tags,
		DeviceID:           r.DeviceID,
		Transport:          r.Transport,
		Format:             string(r.Format),
		AcceptedMediaTypes: r.AcceptedMediaTypes,
		InterfaceBindings:  r.InterfaceBindings,
	}
	for _, set := range r.ConstraintSets {
		wire := make(map[string]ConstraintData, len(set))
		for urn, c := range set {
			wire[urn] = ConstraintData{Enum: c.Enum}
		}
		out.ConstraintSets = append(out.ConstraintSets, wire)
	}
	return out
}
