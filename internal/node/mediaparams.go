package node

import (
	"strconv"
	"strings"

	"github.com/NVIDIA/nvnmos/internal/nmossdp"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// jpegXSEncodingName is the RTP payload encoding name ST 2110-22 JPEG XS
// streams advertise in their a=rtpmap line.
const jpegXSEncodingName = "jxsv"

// isJPEGXS reports whether a leg's encoding is JPEG XS rather than
// uncompressed ST 2110-20 video.
func isJPEGXS(encodingName string) bool {
	return strings.EqualFold(encodingName, jpegXSEncodingName)
}

// videoDimensionsFromFmtp reads the ST 2110-20 fmtp keys (width, height,
// exactframerate, sampling, interlace) the original nvnmos example driver
// advertises (see original_source's VIDEO_FORMAT_SPECIFIC_PARAMETERS).
func videoDimensionsFromFmtp(fmtp map[string]string) (width, height int, grainRate resource.Rational, colorSampling string, colorimetry, transferChar string, interlaced bool) {
	width, _ = strconv.Atoi(fmtp["width"])
	height, _ = strconv.Atoi(fmtp["height"])
	grainRate = parseRational(fmtp["exactframerate"])
	colorSampling = fmtp["sampling"]
	colorimetry = fmtp["colorimetry"]
	transferChar = fmtp["TCS"]
	_, interlaced = fmtp["interlace"]
	return
}

// parseRational parses an SDP exactframerate-style value, either a bare
// integer ("50") or a fraction ("60000/1001"), defaulting the denominator
// to 1.
func parseRational(s string) resource.Rational {
	if s == "" {
		return resource.Rational{}
	}
	parts := strings.SplitN(s, "/", 2)
	num, _ := strconv.Atoi(parts[0])
	den := 1
	if len(parts) == 2 {
		if d, err := strconv.Atoi(parts[1]); err == nil && d != 0 {
			den = d
		}
	}
	return resource.Rational{Numerator: num, Denominator: den}
}

// interlaceModes mirrors the original example driver's capability
// advertisement: an interlaced stream may be top- or bottom-field-first or
// segmented frame, a progressive one is exactly "progressive".
func interlaceModes(interlaced bool) []string {
	if interlaced {
		return []string{"interlaced_bff", "interlaced_tff", "interlaced_psf"}
	}
	return []string{"progressive"}
}

// audioParamsFromEncoding derives sample depth, sample rate, and channel
// count from an audio leg's rtpmap encoding ("L24"/"L16" + clock rate +
// trailing channel-count field), per spec §8 scenario 4.
func audioParamsFromEncoding(encodingName string, clockRateHz int, encodingParams string) (sampleDepth int, sampleRate resource.Rational, channelCount int) {
	switch strings.ToUpper(encodingName) {
	case "L24":
		sampleDepth = 24
	case "L16":
		sampleDepth = 16
	}
	sampleRate = resource.Rational{Numerator: clockRateHz, Denominator: 1}
	channelCount, _ = strconv.Atoi(encodingParams)
	return sampleDepth, sampleRate, channelCount
}

// videoParamsFromLeg builds a sender Flow's VideoParams from a parsed
// sender leg (spec §3 "Flow" format-specific media parameters).
func videoParamsFromLeg(leg nmossdp.SenderLeg) *resource.VideoParams {
	width, height, _, sampling, colorimetry, tcs, interlaced := videoDimensionsFromFmtp(leg.FormatParams)
	vp := &resource.VideoParams{
		FrameWidth:    width,
		FrameHeight:   height,
		Interlaced:    interlaced,
		Colorimetry:   colorimetry,
		ColorSampling: sampling,
		TransferChar:  tcs,
	}
	if isJPEGXS(leg.EncodingName) {
		vp.IsJPEGXS = true
		vp.Profile = leg.FormatParams["profile"]
		vp.Level = leg.FormatParams["level"]
		vp.Sublevel = leg.FormatParams["sublevel"]
		vp.PacketTxMode = leg.FormatParams["packetmode"]
		br := nmossdp.DeriveBitRate(leg.FormatParams, leg.BAS)
		vp.BitRateMbps = br.FormatMbps
		vp.TransportBitRateMbps = br.TransportMbps
	}
	return vp
}

// audioParamsFromLeg builds a sender Flow's AudioParams from a parsed
// sender leg.
func audioParamsFromLeg(leg nmossdp.SenderLeg) *resource.AudioParams {
	depth, rate, _ := audioParamsFromEncoding(leg.EncodingName, leg.ClockRateHz, leg.EncodingParams)
	ap := &resource.AudioParams{
		SampleDepth: depth,
		SampleRate:  rate,
	}
	if v, err := strconv.ParseFloat(leg.FormatParams["ptime"], 64); err == nil {
		ap.PacketTime = v
	}
	if v, err := strconv.ParseFloat(leg.FormatParams["maxptime"], 64); err == nil {
		ap.MaxPacketTime = v
	}
	return ap
}

// ancillaryParamsFromLeg builds a sender Flow's AncillaryParams (SMPTE
// 291) from the fmtp DID_SDID parameter, e.g. "DID_SDID={0x41,0x01}".
func ancillaryParamsFromLeg(leg nmossdp.SenderLeg) *resource.AncillaryParams {
	ap := &resource.AncillaryParams{}
	v, ok := leg.FormatParams["DID_SDID"]
	if !ok {
		return ap
	}
	v = strings.Trim(v, "{}")
	parts := strings.Split(v, ",")
	if len(parts) == 2 {
		ap.DID = parseHexByte(parts[0])
		ap.SDID = parseHexByte(parts[1])
	}
	return ap
}

func parseHexByte(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, _ := strconv.ParseInt(s, 16, 32)
	return int(v)
}

// capabilityConstraintSet builds the BCP-004-01 receiver capability
// constraint set a parsed receiver leg implies (spec §4.4).
func capabilityConstraintSet(leg nmossdp.ReceiverLeg) resource.CapabilityConstraintSet {
	switch {
	case leg.MediaType == resource.FormatVideo && isJPEGXS(leg.EncodingName):
		return jpegXSConstraintSet(leg)
	case leg.MediaType == resource.FormatVideo:
		return videoConstraintSet(leg)
	case leg.MediaType == resource.FormatAudio:
		return audioConstraintSet(leg)
	default:
		return resource.CapabilityConstraintSet{}
	}
}

func enumConstraint(values ...any) resource.CapabilityConstraint {
	return resource.CapabilityConstraint{Enum: values}
}

func videoConstraintSet(leg nmossdp.ReceiverLeg) resource.CapabilityConstraintSet {
	width, height, grainRate, sampling, _, _, interlaced := videoDimensionsFromFmtp(leg.FormatParams)
	cs := resource.CapabilityConstraintSet{
		"urn:x-nmos:cap:format:grain_rate":    enumConstraint(grainRate),
		"urn:x-nmos:cap:format:frame_width":   enumConstraint(width),
		"urn:x-nmos:cap:format:frame_height":  enumConstraint(height),
		"urn:x-nmos:cap:format:interlace_mode": enumConstraint(toAnySlice(interlaceModes(interlaced))...),
	}
	if sampling != "" {
		cs["urn:x-nmos:cap:format:color_sampling"] = enumConstraint(sampling)
	}
	return cs
}

func audioConstraintSet(leg nmossdp.ReceiverLeg) resource.CapabilityConstraintSet {
	depth, rate, channels := audioParamsFromEncoding(leg.EncodingName, leg.ClockRateHz, leg.EncodingParams)
	cs := resource.CapabilityConstraintSet{
		"urn:x-nmos:cap:format:channel_count": enumConstraint(channels),
		"urn:x-nmos:cap:format:sample_rate":   enumConstraint(rate),
		"urn:x-nmos:cap:format:sample_depth":  enumConstraint(depth),
	}
	if v, err := strconv.ParseFloat(leg.FormatParams["ptime"], 64); err == nil {
		cs["urn:x-nmos:cap:format:packet_time"] = enumConstraint(v)
	}
	if v, err := strconv.ParseFloat(leg.FormatParams["maxptime"], 64); err == nil {
		cs["urn:x-nmos:cap:format:max_packet_time"] = enumConstraint(v)
	}
	return cs
}

func jpegXSConstraintSet(leg nmossdp.ReceiverLeg) resource.CapabilityConstraintSet {
	br := nmossdp.DeriveBitRate(leg.FormatParams, leg.BAS)
	cs := resource.CapabilityConstraintSet{
		"urn:x-nmos:cap:format:profile":  enumConstraint(leg.FormatParams["profile"]),
		"urn:x-nmos:cap:format:level":    enumConstraint(leg.FormatParams["level"]),
		"urn:x-nmos:cap:format:sublevel": enumConstraint(leg.FormatParams["sublevel"]),
	}
	if br.Known {
		cs["urn:x-nmos:cap:format:bit_rate"] = enumConstraint(br.FormatMbps)
		cs["urn:x-nmos:cap:transport:bit_rate"] = enumConstraint(br.TransportMbps)
	}
	if v, ok := leg.FormatParams["packetmode"]; ok {
		cs["urn:x-nmos:cap:format:packet_transmission_mode"] = enumConstraint(v)
	}
	return cs
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
