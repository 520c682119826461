package nmossdp

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/NVIDIA/nvnmos/internal/resource"
)

// sinkSDP is the worked video-sender example from spec §8: internal id
// "sink-0", interface 192.0.2.10, multicast 233.252.0.0 port 5020, PTP
// grandmaster AC-DE-48-23-45-67-01-9F domain 42.
const sinkSDP = "v=0\r\n" +
	"o=- 0 0 IN IP4 192.0.2.10\r\n" +
	"s=SDP for sink-0\r\n" +
	"c=IN IP4 233.252.0.0\r\n" +
	"t=0 0\r\n" +
	"a=x-nvnmos-id:sink-0\r\n" +
	"m=video 5020 RTP/AVP 96\r\n" +
	"c=IN IP4 233.252.0.0\r\n" +
	"a=x-nvnmos-iface-ip:192.0.2.10\r\n" +
	"a=rtpmap:96 raw/90000\r\n" +
	"a=ts-refclk:ptp=IEEE1588-2008:AC-DE-48-23-45-67-01-9F:42\r\n" +
	"a=mediaclk:direct=0\r\n"

func TestParseSinkSDP(t *testing.T) {
	p, err := Parse(sinkSDP, RoleSender)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.InternalID != "sink-0" {
		t.Fatalf("InternalID = %q, want sink-0", p.InternalID)
	}
	if len(p.SenderLegs) != 1 {
		t.Fatalf("len(SenderLegs) = %d, want 1", len(p.SenderLegs))
	}
	leg := p.SenderLegs[0]
	if leg.MediaType != resource.FormatVideo {
		t.Errorf("MediaType = %q, want video", leg.MediaType)
	}
	if leg.IfaceIP != "192.0.2.10" {
		t.Errorf("IfaceIP = %q, want 192.0.2.10", leg.IfaceIP)
	}
	if leg.DestinationIP != "233.252.0.0" {
		t.Errorf("DestinationIP = %q, want 233.252.0.0", leg.DestinationIP)
	}
	if leg.DestinationPort != 5020 {
		t.Errorf("DestinationPort = %d, want 5020", leg.DestinationPort)
	}
	if !leg.SourcePortAuto {
		t.Errorf("expected SourcePortAuto, none of x-nvnmos-src-port given")
	}
	if len(leg.TsRefclk) != 1 || leg.TsRefclk[0].Kind != "ptp" {
		t.Fatalf("TsRefclk = %+v, want one ptp ref", leg.TsRefclk)
	}
	if len(leg.Passthrough) != 1 || leg.Passthrough[0] != "mediaclk:direct=0" {
		t.Errorf("Passthrough = %v, want [mediaclk:direct=0]", leg.Passthrough)
	}

	clock, ok := DeriveClock([][]TsRefclk{leg.TsRefclk}, nil)
	if !ok {
		t.Fatal("DeriveClock: ok = false, want true")
	}
	if clock.GMID != "ac-de-48-23-45-67-01-9f" {
		t.Errorf("GMID = %q, want ac-de-48-23-45-67-01-9f", clock.GMID)
	}
	if clock.Domain == nil || *clock.Domain != 42 {
		t.Errorf("Domain = %v, want 42", clock.Domain)
	}
}

// ancillarySDP and muxSDP both use an "application" media description;
// only the rtpmap encoding name tells SMPTE 291 ancillary data apart from
// a SMPTE 2022-6 mux (spec §4.2, §1's supported media type list).
const ancillarySDP = "v=0\r\n" +
	"o=- 0 0 IN IP4 192.0.2.10\r\n" +
	"s=SDP for anc-0\r\n" +
	"c=IN IP4 233.252.0.2\r\n" +
	"t=0 0\r\n" +
	"a=x-nvnmos-id:anc-0\r\n" +
	"m=application 5040 RTP/AVP 100\r\n" +
	"c=IN IP4 233.252.0.2\r\n" +
	"a=x-nvnmos-iface-ip:192.0.2.10\r\n" +
	"a=rtpmap:100 smpte291/90000\r\n"

const muxSDP = "v=0\r\n" +
	"o=- 0 0 IN IP4 192.0.2.10\r\n" +
	"s=SDP for mux-0\r\n" +
	"c=IN IP4 233.252.0.3\r\n" +
	"t=0 0\r\n" +
	"a=x-nvnmos-id:mux-0\r\n" +
	"m=application 5050 RTP/AVP 101\r\n" +
	"c=IN IP4 233.252.0.3\r\n" +
	"a=x-nvnmos-iface-ip:192.0.2.10\r\n" +
	"a=rtpmap:101 SMPTE2022-6/27000000\r\n"

func TestParseDistinguishesAncillaryFromMux(t *testing.T) {
	anc, err := Parse(ancillarySDP, RoleSender)
	if err != nil {
		t.Fatalf("Parse(ancillarySDP): %v", err)
	}
	if got := anc.SenderLegs[0].MediaType; got != resource.FormatData {
		t.Errorf("ancillary MediaType = %q, want data", got)
	}

	mux, err := Parse(muxSDP, RoleSender)
	if err != nil {
		t.Fatalf("Parse(muxSDP): %v", err)
	}
	if got := mux.SenderLegs[0].MediaType; got != resource.FormatMux {
		t.Errorf("mux MediaType = %q, want mux", got)
	}
}

func TestEmitExternalStripsCustomAttributesAndRefreshesOrigin(t *testing.T) {
	p, err := Parse(sinkSDP, RoleSender)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)

	out, err := EmitExternal(p, now)
	if err != nil {
		t.Fatalf("EmitExternal: %v", err)
	}
	if strings.Contains(out, "x-nvnmos") {
		t.Errorf("EmitExternal output retains an x-nvnmos attribute:\n%s", out)
	}
	if !strings.Contains(out, "a=mediaclk:direct=0") {
		t.Errorf("EmitExternal output dropped the passthrough mediaclk attribute:\n%s", out)
	}
	wantVersion := strconv.FormatUint(ntpTime(now), 10)
	if !strings.Contains(out, "o=- 0 "+wantVersion+" IN IP4") {
		t.Errorf("EmitExternal output missing refreshed origin version %s:\n%s", wantVersion, out)
	}
}

func TestEmitInternalRoundTripsSenderLegs(t *testing.T) {
	p, err := Parse(sinkSDP, RoleSender)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)

	first, err := EmitInternal(p, now)
	if err != nil {
		t.Fatalf("EmitInternal: %v", err)
	}
	reparsed, err := Parse(first, RoleSender)
	if err != nil {
		t.Fatalf("Parse(EmitInternal output): %v", err)
	}
	second, err := EmitInternal(reparsed, now)
	if err != nil {
		t.Fatalf("EmitInternal (second pass): %v", err)
	}
	if first != second {
		t.Errorf("EmitInternal is not idempotent once re-parsed:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if reparsed.InternalID != p.InternalID {
		t.Errorf("InternalID did not round-trip: got %q, want %q", reparsed.InternalID, p.InternalID)
	}
	if len(reparsed.SenderLegs) != 1 || reparsed.SenderLegs[0].DestinationIP != "233.252.0.0" {
		t.Errorf("sender leg did not round-trip: %+v", reparsed.SenderLegs)
	}
}

func TestDeriveBitRateFromFormatParams(t *testing.T) {
	br := DeriveBitRate(map[string]string{fmtpFormatBitRate: "10"}, nil)
	if !br.Known || br.FormatMbps != 10 {
		t.Fatalf("BitRate = %+v, want FormatMbps=10", br)
	}
	if br.TransportMbps != 11 {
		t.Errorf("TransportMbps = %v, want 11 (ceil(10*1.05))", br.TransportMbps)
	}
}

func TestDeriveBitRateFromBandwidthLine(t *testing.T) {
	bas := 2000
	br := DeriveBitRate(nil, &bas)
	if !br.Known {
		t.Fatal("BitRate.Known = false, want true")
	}
	if br.TransportMbps != 2 {
		t.Errorf("TransportMbps = %v, want 2", br.TransportMbps)
	}
}

func TestAnySourceMulticastReceiverHasNoFilterLine(t *testing.T) {
	receiverSDP := "v=0\r\n" +
		"o=- 0 0 IN IP4 192.0.2.20\r\n" +
		"s=SDP for recv-0\r\n" +
		"t=0 0\r\n" +
		"a=x-nvnmos-id:recv-0\r\n" +
		"m=video 5020 RTP/AVP 96\r\n" +
		"c=IN IP4 233.252.0.0\r\n" +
		"a=x-nvnmos-iface-ip:192.0.2.20\r\n"

	p, err := Parse(receiverSDP, RoleReceiver)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.ReceiverLegs) != 1 {
		t.Fatalf("len(ReceiverLegs) = %d, want 1", len(p.ReceiverLegs))
	}
	if p.ReceiverLegs[0].SourceIP != "" {
		t.Errorf("SourceIP = %q, want empty (any-source)", p.ReceiverLegs[0].SourceIP)
	}

	out, err := EmitInternal(p, time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("EmitInternal: %v", err)
	}
	if strings.Contains(out, "source-filter") {
		t.Errorf("EmitInternal fabricated a source-filter line for any-source multicast:\n%s", out)
	}
}
