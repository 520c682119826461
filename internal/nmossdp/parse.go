package nmossdp

import (
	"strconv"
	"strings"

	"github.com/pion/sdp/v3"

	"github.com/NVIDIA/nvnmos/internal/resource"
)

const (
	attrID        = "x-nvnmos-id"
	attrGroupHint = "x-nvnmos-group-hint"
	attrIfaceIP   = "x-nvnmos-iface-ip"
	attrSrcPort   = "x-nvnmos-src-port"
	attrInactive  = "inactive"
	attrTsRefclk  = "ts-refclk"
	attrFmtp      = "fmtp"
	attrRtpmap    = "rtpmap"
	attrSrcFilter = "source-filter"
	attrPtime     = "ptime"
	attrMaxptime  = "maxptime"
)

// Parse parses a textual SDP into structured parameters. role selects
// whether the per-leg fields are built for a sender or a receiver (spec
// §4.2).
func Parse(raw string, role Role) (*Parsed, error) {
	sd := &sdp.SessionDescription{}
	if err := sd.Unmarshal([]byte(raw)); err != nil {
		return nil, newErr(ErrCodeParse, "failed to parse SDP", err)
	}

	p := &Parsed{
		Session: SessionParams{
			Username:       sd.Origin.Username,
			SessionID:      sd.Origin.SessionID,
			SessionVersion: sd.Origin.SessionVersion,
			NetworkType:    sd.Origin.NetworkType,
			AddressType:    sd.Origin.AddressType,
			UnicastAddress: sd.Origin.UnicastAddress,
			SessionName:    string(sd.SessionName),
		},
		Role: role,
		raw:  raw,
	}
	if sd.SessionInformation != nil {
		p.SessionInfo = string(*sd.SessionInformation)
	}

	for _, a := range sd.Attributes {
		switch a.Key {
		case attrID:
			p.InternalID = a.Value
		case attrGroupHint:
			p.GroupHint = a.Value
		case attrTsRefclk:
			p.SessionTsRefclk = append(p.SessionTsRefclk, parseTsRefclk(a.Value))
		}
	}
	if p.InternalID == "" {
		return nil, newErr(ErrCodeMissingAttribute, "missing required a=x-nvnmos-id attribute", nil)
	}

	for _, md := range sd.MediaDescriptions {
		format, err := DetectFormat(md.MediaName.Media)
		if err != nil {
			return nil, err
		}

		var ifaceIP string
		var srcPortStr string
		var inactive bool
		var legRefclk []TsRefclk
		fmtp := map[string]string{}
		var bas *int
		var payloadType, encodingName, encodingParams string
		var clockRateHz int
		var passthrough []string

		for _, a := range md.Attributes {
			switch a.Key {
			case attrIfaceIP:
				ifaceIP = a.Value
			case attrSrcPort:
				srcPortStr = a.Value
			case attrInactive:
				inactive = true
			case attrTsRefclk:
				legRefclk = append(legRefclk, parseTsRefclk(a.Value))
			case attrFmtp:
				var parsedParams map[string]string
				payloadType, parsedParams = parseFmtp(a.Value)
				for k, v := range parsedParams {
					fmtp[k] = v
				}
			case attrRtpmap:
				encodingName, clockRateHz, encodingParams = parseRtpmap(a.Value)
			case attrPtime:
				fmtp[attrPtime] = a.Value
			case attrMaxptime:
				fmtp[attrMaxptime] = a.Value
			case attrSrcFilter:
				// handled below via the dedicated source-filter scan
			default:
				passthrough = append(passthrough, formatAttr(a))
			}
		}
		for _, b := range md.Bandwidth {
			if strings.EqualFold(b.Type, "AS") {
				v := int(b.Bandwidth)
				bas = &v
			}
		}
		if ifaceIP == "" {
			return nil, newErr(ErrCodeMissingAttribute, "missing required a=x-nvnmos-iface-ip attribute", nil)
		}
		if len(legRefclk) == 0 {
			legRefclk = p.SessionTsRefclk
		}
		if format == resource.FormatData {
			// "application" covers both SMPTE 291 ancillary data and SMPTE
			// 2022-6 mux; only the rtpmap encoding name (now parsed) tells
			// them apart.
			format = DetectDataSubformat(encodingName)
		}

		connAddr := ""
		if md.ConnectionInformation != nil && md.ConnectionInformation.Address != nil {
			connAddr = md.ConnectionInformation.Address.Address
		} else if sd.ConnectionInformation != nil && sd.ConnectionInformation.Address != nil {
			connAddr = sd.ConnectionInformation.Address.Address
		}

		var filterDest, filterSrc string
		var haveFilter bool
		for _, a := range md.Attributes {
			if a.Key == attrSrcFilter {
				filterDest, filterSrc, haveFilter = parseSourceFilter(a.Value)
			}
		}

		switch role {
		case RoleSender:
			dest := connAddr
			if haveFilter && filterDest != "" {
				dest = filterDest
			}
			leg := SenderLeg{
				MediaType:       format,
				IfaceIP:         ifaceIP,
				DestinationIP:   dest,
				DestinationPort: md.MediaName.Port.Value,
				RTPEnabled:      !inactive,
				TsRefclk:        legRefclk,
				FormatParams:    fmtp,
				BAS:             bas,
				PayloadType:     payloadType,
				EncodingName:    encodingName,
				ClockRateHz:     clockRateHz,
				EncodingParams:  encodingParams,
				Passthrough:     passthrough,
			}
			if srcPortStr != "" {
				if port, err := strconv.Atoi(srcPortStr); err == nil {
					leg.SourcePort = port
				}
			} else {
				leg.SourcePortAuto = true
			}
			p.SenderLegs = append(p.SenderLegs, leg)
		case RoleReceiver:
			srcIP := ""
			if haveFilter {
				srcIP = filterSrc
			}
			leg := ReceiverLeg{
				MediaType:       format,
				IfaceIP:         ifaceIP,
				MulticastIP:     connAddr,
				SourceIP:        srcIP,
				DestinationPort: md.MediaName.Port.Value,
				RTPEnabled:      !inactive,
				TsRefclk:        legRefclk,
				FormatParams:    fmtp,
				BAS:             bas,
				PayloadType:     payloadType,
				EncodingName:    encodingName,
				ClockRateHz:     clockRateHz,
				EncodingParams:  encodingParams,
				Passthrough:     passthrough,
			}
			p.ReceiverLegs = append(p.ReceiverLegs, leg)
		}
	}

	return p, nil
}

// parseFmtp parses an "a=fmtp:<payload> key1=val1;key2=val2" value into
// its payload type token and its key/value parameter map.
func parseFmtp(value string) (payloadType string, params map[string]string) {
	params = map[string]string{}
	fields := strings.SplitN(value, " ", 2)
	if len(fields) == 0 {
		return "", params
	}
	payloadType = fields[0]
	if len(fields) < 2 {
		return payloadType, params
	}
	for _, kv := range strings.Split(fields[1], ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		key := strings.TrimSpace(parts[0])
		val := ""
		if len(parts) == 2 {
			val = strings.TrimSpace(parts[1])
		}
		params[key] = val
	}
	return payloadType, params
}

// parseRtpmap parses an "a=rtpmap:<payload> <encoding>/<clockrate>[/<params>]"
// value into its encoding name, clock rate, and optional trailing encoding
// parameter (e.g. the channel count of an audio encoding).
func parseRtpmap(value string) (encodingName string, clockRateHz int, encodingParams string) {
	fields := strings.SplitN(value, " ", 2)
	if len(fields) < 2 {
		return "", 0, ""
	}
	parts := strings.Split(fields[1], "/")
	if len(parts) == 0 {
		return "", 0, ""
	}
	encodingName = parts[0]
	if len(parts) > 1 {
		if rate, err := strconv.Atoi(parts[1]); err == nil {
			clockRateHz = rate
		}
	}
	if len(parts) > 2 {
		encodingParams = parts[2]
	}
	return encodingName, clockRateHz, encodingParams
}

// formatAttr renders an unrecognised attribute back to its "key:value" (or
// bare "key") textual form so it can be replayed verbatim on emission.
func formatAttr(a sdp.Attribute) string {
	if a.Value == "" {
		return a.Key
	}
	return a.Key + ":" + a.Value
}

// parseSourceFilter parses an "a=source-filter:<mode> <nettype> <addrtype>
// <dest-addr> <src-addr>..." value (RFC 4570).
func parseSourceFilter(value string) (destAddr, srcAddr string, ok bool) {
	fields := strings.Fields(value)
	if len(fields) < 5 {
		return "", "", false
	}
	destAddr = fields[3]
	srcAddr = fields[4]
	return destAddr, srcAddr, true
}
