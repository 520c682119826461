package nmossdp

import (
	"strconv"
	"strings"
)

// TraceableGMID is the sentinel grandmaster id used when only a
// "traceable" PTP reference is present (spec §4.2).
const TraceableGMID = "ff-ff-ff-ff-ff-ff-ff-ff"

// parseTsRefclk interprets the value of one "a=ts-refclk:" attribute
// (RFC 7273 syntax: "ptp=<ver>:<gmid>[:<domain>]", "ptp=<ver>:traceable",
// or "localmac=<mac>").
func parseTsRefclk(value string) TsRefclk {
	ref := TsRefclk{Raw: value}

	switch {
	case strings.HasPrefix(value, "ptp="):
		ref.Kind = "ptp"
		rest := strings.TrimPrefix(value, "ptp=")
		parts := strings.Split(rest, ":")
		if len(parts) > 0 {
			ref.PTPVer = parts[0]
		}
		if len(parts) > 1 && strings.EqualFold(parts[1], "traceable") {
			ref.Traceable = true
			ref.GMID = TraceableGMID
			return ref
		}
		if len(parts) > 1 {
			ref.GMID = normalizeGMID(parts[1])
		}
		if len(parts) > 2 {
			if d, err := strconv.Atoi(parts[2]); err == nil {
				ref.Domain = &d
			}
		}
	case strings.HasPrefix(value, "localmac="):
		ref.Kind = "localmac"
	}

	return ref
}

// normalizeGMID lower-cases a grandmaster id to the canonical colon-free,
// hyphen-separated hex form spec §4.2 requires.
func normalizeGMID(gmid string) string {
	gmid = strings.ToLower(gmid)
	gmid = strings.ReplaceAll(gmid, ":", "-")
	return gmid
}

// ClockRef is a node clock descriptor derived from ts-refclk attributes.
type ClockRef struct {
	RefType   string // "internal" or "ptp"
	GMID      string // set only when RefType == "ptp"
	Domain    *int
	Traceable bool
}

// DeriveClock inspects an effective (session-default-applied) list of
// ts-refclk references across a sender's (or receiver's) legs and produces
// the node clock descriptor spec §4.2 describes. previousDomain carries
// forward a previously recorded domain when this occurrence doesn't state
// one explicitly. ok is false when no PTP reference is present (localmac
// or nothing), meaning the node clock should not be touched.
func DeriveClock(legRefs [][]TsRefclk, previousDomain *int) (clock ClockRef, ok bool) {
	var traceableOnly *TsRefclk

	for _, legs := range legRefs {
		for i := range legs {
			ref := legs[i]
			if ref.Kind != "ptp" {
				continue
			}
			if ref.Traceable {
				if traceableOnly == nil {
					traceableOnly = &legs[i]
				}
				continue
			}
			domain := ref.Domain
			if domain == nil {
				domain = previousDomain
			}
			return ClockRef{RefType: "ptp", GMID: ref.GMID, Domain: domain}, true
		}
	}

	if traceableOnly != nil {
		return ClockRef{RefType: "ptp", GMID: TraceableGMID, Traceable: true, Domain: previousDomain}, true
	}

	return ClockRef{RefType: "internal"}, false
}
