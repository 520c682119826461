package nmossdp

import (
	"math"
	"strconv"
)

const (
	fmtpFormatBitRate    = "x-nvnmos-format-bit-rate"
	fmtpTransportBitRate = "x-nvnmos-transport-bit-rate"
)

// BitRate is the resolved format and transport bit rate of a JPEG XS flow,
// both in Mbps.
type BitRate struct {
	FormatMbps    float64
	TransportMbps float64
	Known         bool
}

// DeriveBitRate resolves the format and transport bit rates from the
// custom fmtp parameters and/or the SDP "b=AS:" line, per spec §4.2.
func DeriveBitRate(fmtp map[string]string, basKbps *int) BitRate {
	var formatMbps, transportMbps float64
	var haveFormat, haveTransport bool

	if v, ok := fmtp[fmtpFormatBitRate]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			formatMbps = f
			haveFormat = true
		}
	}
	if v, ok := fmtp[fmtpTransportBitRate]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			transportMbps = f
			haveTransport = true
		}
	}

	if !haveFormat {
		switch {
		case haveTransport:
			formatMbps = transportMbps / 1.05
			haveFormat = true
		case basKbps != nil:
			formatMbps = float64(*basKbps) / 1000 / 1.05
			haveFormat = true
		}
	}

	if !haveTransport {
		switch {
		case haveFormat:
			// Round up to the nearest whole Mbps, per spec §4.2.
			transportMbps = math.Ceil(formatMbps * 1.05)
			haveTransport = true
		case basKbps != nil:
			transportMbps = float64(*basKbps) / 1000
			haveTransport = true
		}
	}

	return BitRate{
		FormatMbps:    formatMbps,
		TransportMbps: transportMbps,
		Known:         haveFormat || haveTransport,
	}
}
