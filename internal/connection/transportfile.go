package connection

import (
	"time"

	"github.com/NVIDIA/nvnmos/internal/nmossdp"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// overlaySenderParams extends parsed's sender legs to match active's
// length (spec §4.5 "extend by using duplication-group semantics and
// replicate the first ts-refclk across legs") and overlays the active
// transport parameters onto each leg.
func overlaySenderParams(parsed *nmossdp.Parsed, active []resource.SenderTransportParams, ptpDomain *int) {
	for len(parsed.SenderLegs) < len(active) {
		last := parsed.SenderLegs[len(parsed.SenderLegs)-1]
		clone := last
		clone.Passthrough = append([]string(nil), last.Passthrough...)
		if len(parsed.SenderLegs[0].TsRefclk) > 0 {
			clone.TsRefclk = []nmossdp.TsRefclk{parsed.SenderLegs[0].TsRefclk[0]}
		}
		parsed.SenderLegs = append(parsed.SenderLegs, clone)
	}

	for i, params := range active {
		if i >= len(parsed.SenderLegs) {
			break
		}
		leg := parsed.SenderLegs[i]
		if params.SourceIP != "" {
			leg.IfaceIP = params.SourceIP
		}
		if params.DestinationIP != "" {
			leg.DestinationIP = params.DestinationIP
		}
		if params.DestinationPort != 0 {
			leg.DestinationPort = params.DestinationPort
		}
		leg.SourcePort = params.SourcePort
		leg.SourcePortAuto = params.SourcePortAuto
		leg.RTPEnabled = params.RTPEnabled
		if ptpDomain != nil {
			for j := range leg.TsRefclk {
				if leg.TsRefclk[j].Kind == "ptp" {
					leg.TsRefclk[j].Domain = ptpDomain
				}
			}
		}
		parsed.SenderLegs[i] = leg
	}
}

// synthesizeSenderTransportFile rebuilds the sender's external-form
// (transport-file) SDP from its original skeleton plus the now-active
// transport params and the node clock's current PTP domain (spec §4.5
// "Transport-file synthesizer").
func synthesizeSenderTransportFile(skeleton string, active []resource.SenderTransportParams, ptpDomain *int, now time.Time) (string, error) {
	parsed, err := nmossdp.Parse(skeleton, nmossdp.RoleSender)
	if err != nil {
		return "", newErr(ErrCodeInvalidSDP, "sender skeleton SDP is no longer parseable", err)
	}
	overlaySenderParams(parsed, active, ptpDomain)
	out, err := nmossdp.EmitExternal(parsed, now)
	if err != nil {
		return "", newErr(ErrCodeInvalidSDP, "failed to synthesize sender transport file", err)
	}
	return out, nil
}

// reconstructSenderInternalSDP rebuilds the internal-form SDP delivered to
// the host's activation callback (spec §4.5 "Activation callback").
func reconstructSenderInternalSDP(skeleton string, active []resource.SenderTransportParams, ptpDomain *int, now time.Time) (string, error) {
	parsed, err := nmossdp.Parse(skeleton, nmossdp.RoleSender)
	if err != nil {
		return "", newErr(ErrCodeInvalidSDP, "sender skeleton SDP is no longer parseable", err)
	}
	overlaySenderParams(parsed, active, ptpDomain)
	out, err := nmossdp.EmitInternal(parsed, now)
	if err != nil {
		return "", newErr(ErrCodeInvalidSDP, "failed to reconstruct sender internal SDP", err)
	}
	return out, nil
}

// reconstructReceiverInternalSDP rebuilds the internal-form SDP delivered
// to the host's activation callback for a receiver.
func reconstructReceiverInternalSDP(skeleton string, active []resource.ReceiverTransportParams, now time.Time) (string, error) {
	parsed, err := nmossdp.Parse(skeleton, nmossdp.RoleReceiver)
	if err != nil {
		return "", newErr(ErrCodeInvalidSDP, "receiver skeleton SDP is no longer parseable", err)
	}
	for i, params := range active {
		if i >= len(parsed.ReceiverLegs) {
			break
		}
		leg := parsed.ReceiverLegs[i]
		if params.InterfaceIP != "" {
			leg.IfaceIP = params.InterfaceIP
		}
		if params.MulticastIP != "" {
			leg.MulticastIP = params.MulticastIP
		}
		leg.SourceIP = params.SourceIP
		if params.DestinationPort != 0 {
			leg.DestinationPort = params.DestinationPort
		}
		leg.RTPEnabled = params.RTPEnabled
		parsed.ReceiverLegs[i] = leg
	}
	out, err := nmossdp.EmitInternal(parsed, now)
	if err != nil {
		return "", newErr(ErrCodeInvalidSDP, "failed to reconstruct receiver internal SDP", err)
	}
	return out, nil
}
