// Package nmossdp implements the SdpCodec of spec §4.2: parsing SDP into
// structured session/transport/clock parameters and the custom
// "x-nvnmos-*" attributes, and synthesizing SDP back from the live model
// in both internal (debugging/activation-callback) and external
// (transport-file) form.
package nmossdp

import (
	"fmt"

	"github.com/NVIDIA/nvnmos/internal/resource"
)

// SessionParams carries the session-level fields needed to reconstruct an
// SDP (spec §4.2 "a session-parameters structure").
type SessionParams struct {
	Username        string
	SessionID       uint64
	SessionVersion  uint64
	NetworkType     string
	AddressType     string
	UnicastAddress  string
	SessionName     string
}

// TsRefclk is one parsed "a=ts-refclk:" attribute value, kept verbatim
// plus its parsed clock kind so the clock derivation and re-emission both
// work from the same record.
type TsRefclk struct {
	Raw       string // the full attribute value, e.g. "ptp=IEEE1588-2008:AC-DE-...:42"
	Kind      string // "ptp", "localmac", or "" if unrecognised
	PTPVer    string
	GMID      string
	Domain    *int
	Traceable bool
}

// SenderLeg is one media description's transport parameters as seen from
// a sender's point of view (spec §4.2).
type SenderLeg struct {
	MediaType       resource.Format
	IfaceIP         string // x-nvnmos-iface-ip; required
	DestinationIP   string // from c= or inclusive source-filter
	DestinationPort int
	SourcePort      int  // 0 if unresolved ("auto")
	SourcePortAuto  bool
	RTPEnabled      bool
	TsRefclk        []TsRefclk
	FormatParams    map[string]string // fmtp key/value pairs
	BAS             *int              // b=AS: kbps, if present
	PayloadType     string
	EncodingName    string
	ClockRateHz     int
	EncodingParams  string // rtpmap's trailing slash field, e.g. audio channel count
	Passthrough     []string // other a= lines (e.g. "mediaclk:direct=0") kept verbatim
}

// ReceiverLeg is one media description's transport parameters as seen
// from a receiver's point of view.
type ReceiverLeg struct {
	MediaType       resource.Format
	IfaceIP         string
	MulticastIP     string
	SourceIP        string // "" for any-source multicast (open question, spec §9)
	DestinationPort int
	RTPEnabled      bool
	TsRefclk        []TsRefclk
	FormatParams    map[string]string
	BAS             *int
	PayloadType     string
	EncodingName    string
	ClockRateHz     int
	EncodingParams  string
	Passthrough     []string
}

// Parsed is the structured result of Parse: everything needed to rebuild
// the SDP plus the custom fields spec §4.2 calls out.
type Parsed struct {
	Session         SessionParams
	SessionInfo     string // the i= line, if present
	InternalID      string // x-nvnmos-id
	GroupHint       string // x-nvnmos-group-hint, optional
	SessionTsRefclk []TsRefclk
	SenderLegs      []SenderLeg   // populated when Role == RoleSender
	ReceiverLegs    []ReceiverLeg // populated when Role == RoleReceiver
	Role            Role
	raw             string // preserved for receiver transport-file passthrough
}

// Role distinguishes which of the two leg shapes a Parsed carries.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// Error is the SdpCodec's domain error type (spec §7 "SDP malformed").
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

const (
	ErrCodeParse             = "SDP_PARSE"
	ErrCodeUnsupportedFormat = "SDP_UNSUPPORTED_FORMAT"
	ErrCodeMissingAttribute  = "SDP_MISSING_ATTRIBUTE"
)

func newErr(code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}
