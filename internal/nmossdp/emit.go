package nmossdp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pion/sdp/v3"
)

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch.
const ntpEpochOffset = 2208988800

func ntpTime(t time.Time) uint64 {
	return uint64(t.Unix() + ntpEpochOffset)
}

// EmitInternal synthesizes a debugging/activation-callback SDP from
// Parsed, including the custom x-nvnmos-* attributes (spec §4.2). now
// drives the refreshed o= session-version timestamp.
func EmitInternal(p *Parsed, now time.Time) (string, error) {
	return emit(p, now, true)
}

// EmitExternal synthesizes the transport-file form of an SDP: identical
// to EmitInternal except every x-nvnmos-* attribute is stripped, since
// those are internal hints with no meaning to an external controller or
// receiving node (spec §4.2).
func EmitExternal(p *Parsed, now time.Time) (string, error) {
	return emit(p, now, false)
}

func emit(p *Parsed, now time.Time, internal bool) (string, error) {
	sd := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       firstNonEmpty(p.Session.Username, "-"),
			SessionID:      p.Session.SessionID,
			SessionVersion: ntpTime(now),
			NetworkType:    firstNonEmpty(p.Session.NetworkType, "IN"),
			AddressType:    firstNonEmpty(p.Session.AddressType, "IP4"),
			UnicastAddress: p.Session.UnicastAddress,
		},
		SessionName: sdp.SessionName(firstNonEmpty(p.Session.SessionName, "-")),
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{StartTime: 0, StopTime: 0}},
		},
	}
	if p.SessionInfo != "" {
		info := sdp.Information(p.SessionInfo)
		sd.SessionInformation = &info
	}

	if internal {
		sd.Attributes = append(sd.Attributes, sdp.Attribute{Key: attrID, Value: p.InternalID})
		if p.GroupHint != "" {
			sd.Attributes = append(sd.Attributes, sdp.Attribute{Key: attrGroupHint, Value: p.GroupHint})
		}
	}
	for _, ref := range p.SessionTsRefclk {
		sd.Attributes = append(sd.Attributes, sdp.Attribute{Key: attrTsRefclk, Value: ref.Raw})
	}

	switch p.Role {
	case RoleSender:
		for _, leg := range p.SenderLegs {
			md, err := emitSenderLeg(leg, internal)
			if err != nil {
				return "", err
			}
			sd.MediaDescriptions = append(sd.MediaDescriptions, md)
		}
	case RoleReceiver:
		for _, leg := range p.ReceiverLegs {
			md, err := emitReceiverLeg(leg, internal)
			if err != nil {
				return "", err
			}
			sd.MediaDescriptions = append(sd.MediaDescriptions, md)
		}
	}

	raw, err := sd.Marshal()
	if err != nil {
		return "", newErr(ErrCodeParse, "failed to marshal SDP", err)
	}
	return string(raw), nil
}

func emitSenderLeg(leg SenderLeg, internal bool) (*sdp.MediaDescription, error) {
	md := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media: string(leg.MediaType),
			Port:  sdp.RangedPort{Value: leg.DestinationPort},
			Protos: []string{"RTP", "AVP"},
			Formats: []string{firstNonEmpty(leg.PayloadType, "96")},
		},
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: leg.DestinationIP},
		},
	}

	if internal {
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrIfaceIP, Value: leg.IfaceIP})
		if !leg.SourcePortAuto && leg.SourcePort != 0 {
			md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrSrcPort, Value: strconv.Itoa(leg.SourcePort)})
		}
	}
	if !leg.RTPEnabled {
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrInactive})
	}
	if leg.EncodingName != "" {
		md.Attributes = append(md.Attributes, sdp.Attribute{
			Key:   attrRtpmap,
			Value: fmt.Sprintf("%s %s/%d", firstNonEmpty(leg.PayloadType, "96"), leg.EncodingName, leg.ClockRateHz),
		})
	}
	emitFmtpAndTiming(md, leg.FormatParams, leg.PayloadType)
	for _, ref := range leg.TsRefclk {
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrTsRefclk, Value: ref.Raw})
	}
	if leg.BAS != nil {
		md.Bandwidth = append(md.Bandwidth, sdp.Bandwidth{Type: "AS", Bandwidth: uint64(*leg.BAS)})
	}
	appendPassthrough(md, leg.Passthrough)

	return md, nil
}

func emitReceiverLeg(leg ReceiverLeg, internal bool) (*sdp.MediaDescription, error) {
	md := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media: string(leg.MediaType),
			Port:  sdp.RangedPort{Value: leg.DestinationPort},
			Protos: []string{"RTP", "AVP"},
			Formats: []string{firstNonEmpty(leg.PayloadType, "96")},
		},
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: leg.MulticastIP},
		},
	}

	if internal {
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrIfaceIP, Value: leg.IfaceIP})
	}
	// Per the any-source-multicast open question (spec §9), only emit a
	// source-filter line when a source IP is actually known.
	if leg.SourceIP != "" {
		md.Attributes = append(md.Attributes, sdp.Attribute{
			Key:   attrSrcFilter,
			Value: fmt.Sprintf("incl IN IP4 %s %s", leg.MulticastIP, leg.SourceIP),
		})
	}
	if !leg.RTPEnabled {
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrInactive})
	}
	if leg.EncodingName != "" {
		md.Attributes = append(md.Attributes, sdp.Attribute{
			Key:   attrRtpmap,
			Value: fmt.Sprintf("%s %s/%d", firstNonEmpty(leg.PayloadType, "96"), leg.EncodingName, leg.ClockRateHz),
		})
	}
	emitFmtpAndTiming(md, leg.FormatParams, leg.PayloadType)
	for _, ref := range leg.TsRefclk {
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrTsRefclk, Value: ref.Raw})
	}
	if leg.BAS != nil {
		md.Bandwidth = append(md.Bandwidth, sdp.Bandwidth{Type: "AS", Bandwidth: uint64(*leg.BAS)})
	}
	appendPassthrough(md, leg.Passthrough)

	return md, nil
}

// emitFmtpAndTiming re-adds the ptime/maxptime attributes as their own
// a= lines (RFC 4566 dedicated attributes, not fmtp parameters) and folds
// everything else in params back into a single a=fmtp line.
func emitFmtpAndTiming(md *sdp.MediaDescription, params map[string]string, payloadType string) {
	if ptime, ok := params[attrPtime]; ok {
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrPtime, Value: ptime})
	}
	if maxptime, ok := params[attrMaxptime]; ok {
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: attrMaxptime, Value: maxptime})
	}

	rest := make(map[string]string, len(params))
	for k, v := range params {
		if k == attrPtime || k == attrMaxptime {
			continue
		}
		rest[k] = v
	}
	if len(rest) > 0 {
		md.Attributes = append(md.Attributes, sdp.Attribute{
			Key:   attrFmtp,
			Value: fmt.Sprintf("%s %s", firstNonEmpty(payloadType, "96"), encodeFmtp(rest)),
		})
	}
}

func appendPassthrough(md *sdp.MediaDescription, attrs []string) {
	for _, raw := range attrs {
		key, value, _ := strings.Cut(raw, ":")
		md.Attributes = append(md.Attributes, sdp.Attribute{Key: key, Value: value})
	}
}

func encodeFmtp(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := params[k]; v != "" {
			parts = append(parts, k+"="+v)
		} else {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, "; ")
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
