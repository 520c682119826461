package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NVIDIA/nvnmos/internal/api/models"
	"github.com/NVIDIA/nvnmos/internal/connection"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// ActivationInput is the wire shape of an IS-05 "activation" PATCH object.
type ActivationInput struct {
	Mode          string `json:"mode,omitempty"`
	RequestedTime string `json:"requested_time,omitempty"`
}

func (a *ActivationInput) toRequest() *connection.ActivationRequest {
	if a == nil || a.Mode == "" {
		return nil
	}
	return &connection.ActivationRequest{Mode: resource.ActivationMode(a.Mode), RequestedTime: a.RequestedTime}
}

// parseAutoString reads a transport_params field that is either the literal
// string "auto" or a concrete string value (spec §4.2's IS-05 "auto" wire
// convention). A nil raw message means the field was omitted entirely.
func parseAutoString(raw json.RawMessage) (*connection.AutoString, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid auto-string field: %w", err)
	}
	if s == "auto" {
		return &connection.AutoString{Auto: true}, nil
	}
	return &connection.AutoString{Value: s}, nil
}

// parseAutoInt is parseAutoString's integer-field equivalent.
func parseAutoInt(raw json.RawMessage) (*connection.AutoInt, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s != "auto" {
			return nil, fmt.Errorf("invalid auto-int field: %q", s)
		}
		return &connection.AutoInt{Auto: true}, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("invalid auto-int field: %w", err)
	}
	return &connection.AutoInt{Value: n}, nil
}

// SenderLegInput is one element of a sender PATCH /staged transport_params
// array.
type SenderLegInput struct {
	SourceIP        json.RawMessage `json:"source_ip,omitempty"`
	DestinationIP   json.RawMessage `json:"destination_ip,omitempty"`
	DestinationPort json.RawMessage `json:"destination_port,omitempty"`
	SourcePort      json.RawMessage `json:"source_port,omitempty"`
	RTPEnabled      *bool           `json:"rtp_enabled,omitempty"`
}

func (l SenderLegInput) toPatch() (connection.SenderLegPatch, error) {
	var patch connection.SenderLegPatch
	var err error
	if patch.SourceIP, err = parseAutoString(l.SourceIP); err != nil {
		return patch, err
	}
	if patch.DestinationIP, err = parseAutoString(l.DestinationIP); err != nil {
		return patch, err
	}
	if patch.DestinationPort, err = parseAutoInt(l.DestinationPort); err != nil {
		return patch, err
	}
	if patch.SourcePort, err = parseAutoInt(l.SourcePort); err != nil {
		return patch, err
	}
	patch.RTPEnabled = l.RTPEnabled
	return patch, nil
}

// ReceiverLegInput is one element of a receiver PATCH /staged
// transport_params array.
type ReceiverLegInput struct {
	InterfaceIP     json.RawMessage `json:"interface_ip,omitempty"`
	MulticastIP     json.RawMessage `json:"multicast_ip,omitempty"`
	SourceIP        json.RawMessage `json:"source_ip,omitempty"`
	DestinationPort json.RawMessage `json:"destination_port,omitempty"`
	RTPEnabled      *bool           `json:"rtp_enabled,omitempty"`
}

func (l ReceiverLegInput) toPatch() (connection.ReceiverLegPatch, error) {
	var patch connection.ReceiverLegPatch
	var err error
	if patch.InterfaceIP, err = parseAutoString(l.InterfaceIP); err != nil {
		return patch, err
	}
	if patch.MulticastIP, err = parseAutoString(l.MulticastIP); err != nil {
		return patch, err
	}
	if patch.SourceIP, err = parseAutoString(l.SourceIP); err != nil {
		return patch, err
	}
	if patch.DestinationPort, err = parseAutoInt(l.DestinationPort); err != nil {
		return patch, err
	}
	patch.RTPEnabled = l.RTPEnabled
	return patch, nil
}

// SenderStagedPatchBody is the PATCH /staged request body for a sender.
type SenderStagedPatchBody struct {
	MasterEnable    *bool            `json:"master_enable,omitempty"`
	Activation      *ActivationInput `json:"activation,omitempty"`
	TransportParams []SenderLegInput `json:"transport_params,omitempty"`
}

// ReceiverStagedPatchBody is the PATCH /staged request body for a receiver.
type ReceiverStagedPatchBody struct {
	MasterEnable    *bool              `json:"master_enable,omitempty"`
	Activation      *ActivationInput   `json:"activation,omitempty"`
	TransportParams []ReceiverLegInput `json:"transport_params,omitempty"`
}

func (b SenderStagedPatchBody) toPatch() (connection.StagedPatch, error) {
	patch := connection.StagedPatch{MasterEnable: b.MasterEnable, Activation: b.Activation.toRequest()}
	if b.TransportParams != nil {
		legs := make([]connection.SenderLegPatch, len(b.TransportParams))
		for i, l := range b.TransportParams {
			leg, err := l.toPatch()
			if err != nil {
				return patch, err
			}
			legs[i] = leg
		}
		patch.SenderLegs = legs
	}
	return patch, nil
}

func (b ReceiverStagedPatchBody) toPatch() (connection.StagedPatch, error) {
	patch := connection.StagedPatch{MasterEnable: b.MasterEnable, Activation: b.Activation.toRequest()}
	if b.TransportParams != nil {
		legs := make([]connection.ReceiverLegPatch, len(b.TransportParams))
		for i, l := range b.TransportParams {
			leg, err := l.toPatch()
			if err != nil {
				return patch, err
			}
			legs[i] = leg
		}
		patch.ReceiverLegs = legs
	}
	return patch, nil
}

// SenderStagedPatchInput combines the sender path parameter and the PATCH
// body.
type SenderStagedPatchInput struct {
	SenderIDInput
	Body SenderStagedPatchBody
}

// ReceiverStagedPatchInput is the receiver equivalent.
type ReceiverStagedPatchInput struct {
	ReceiverIDInput
	Body ReceiverStagedPatchBody
}

func mapConnectionError(err error) error {
	if err == nil {
		return nil
	}
	if cerr, ok := err.(*connection.Error); ok {
		switch cerr.Code {
		case connection.ErrCodeNotFound:
			return huma.Error404NotFound(cerr.Message)
		default:
			return huma.Error400BadRequest(cerr.Message)
		}
	}
	return huma.Error400BadRequest(err.Error())
}

// registerConnectionRoutes mounts the IS-05 staged/active/constraints
// endpoints for senders and receivers (spec §4.6). The transport-file
// endpoint is served directly on the mux since its body is raw SDP, not
// JSON.
func (s *Server) registerConnectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-sender-staged",
		Method:      http.MethodGet,
		Path:        is05Base + "/senders/{sender_id}/staged",
		Summary:     "Sender staged parameters",
		Tags:        []string{"connection"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *SenderIDInput) (*models.SenderStagedResponse, error) {
		r, ok := s.connStore.Find(input.SenderID, resource.TypeConnectionSender)
		if !ok {
			return nil, notFoundErr("sender", input.SenderID)
		}
		return &models.SenderStagedResponse{Body: models.ToSenderStagedData(r.(*resource.ConnectionSender), "")}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "patch-sender-staged",
		Method:      http.MethodPatch,
		Path:        is05Base + "/senders/{sender_id}/staged",
		Summary:     "Patch sender staged parameters",
		Tags:        []string{"connection"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *SenderStagedPatchInput) (*models.SenderStagedResponse, error) {
		patch, err := input.Body.toPatch()
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		if err := s.engine.PatchSenderStaged(input.SenderID, patch); err != nil {
			return nil, mapConnectionError(err)
		}
		r, ok := s.connStore.Find(input.SenderID, resource.TypeConnectionSender)
		if !ok {
			return nil, notFoundErr("sender", input.SenderID)
		}
		return &models.SenderStagedResponse{Body: models.ToSenderStagedData(r.(*resource.ConnectionSender), "")}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-sender-active",
		Method:      http.MethodGet,
		Path:        is05Base + "/senders/{sender_id}/active",
		Summary:     "Sender active parameters",
		Tags:        []string{"connection"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *SenderIDInput) (*models.SenderActiveResponse, error) {
		r, ok := s.connStore.Find(input.SenderID, resource.TypeConnectionSender)
		if !ok {
			return nil, notFoundErr("sender", input.SenderID)
		}
		return &models.SenderActiveResponse{Body: models.ToSenderActiveData(r.(*resource.ConnectionSender), "")}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-sender-constraints",
		Method:      http.MethodGet,
		Path:        is05Base + "/senders/{sender_id}/constraints",
		Summary:     "Sender transport-param constraints",
		Tags:        []string{"connection"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *SenderIDInput) (*ConstraintsResponse, error) {
		r, ok := s.connStore.Find(input.SenderID, resource.TypeConnectionSender)
		if !ok {
			return nil, notFoundErr("sender", input.SenderID)
		}
		c := r.(*resource.ConnectionSender)
		return &ConstraintsResponse{Body: models.ToSenderConstraintsData(c.EndpointConstraints)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-receiver-staged",
		Method:      http.MethodGet,
		Path:        is05Base + "/receivers/{receiver_id}/staged",
		Summary:     "Receiver staged parameters",
		Tags:        []string{"connection"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *ReceiverIDInput) (*models.ReceiverStagedResponse, error) {
		r, ok := s.connStore.Find(input.ReceiverID, resource.TypeConnectionReceiver)
		if !ok {
			return nil, notFoundErr("receiver", input.ReceiverID)
		}
		return &models.ReceiverStagedResponse{Body: models.ToReceiverStagedData(r.(*resource.ConnectionReceiver), "")}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "patch-receiver-staged",
		Method:      http.MethodPatch,
		Path:        is05Base + "/receivers/{receiver_id}/staged",
		Summary:     "Patch receiver staged parameters",
		Tags:        []string{"connection"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *ReceiverStagedPatchInput) (*models.ReceiverStagedResponse, error) {
		patch, err := input.Body.toPatch()
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		if err := s.engine.PatchReceiverStaged(input.ReceiverID, patch); err != nil {
			return nil, mapConnectionError(err)
		}
		r, ok := s.connStore.Find(input.ReceiverID, resource.TypeConnectionReceiver)
		if !ok {
			return nil, notFoundErr("receiver", input.ReceiverID)
		}
		return &models.ReceiverStagedResponse{Body: models.ToReceiverStagedData(r.(*resource.ConnectionReceiver), "")}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-receiver-active",
		Method:      http.MethodGet,
		Path:        is05Base + "/receivers/{receiver_id}/active",
		Summary:     "Receiver active parameters",
		Tags:        []string{"connection"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *ReceiverIDInput) (*models.ReceiverActiveResponse, error) {
		r, ok := s.connStore.Find(input.ReceiverID, resource.TypeConnectionReceiver)
		if !ok {
			return nil, notFoundErr("receiver", input.ReceiverID)
		}
		return &models.ReceiverActiveResponse{Body: models.ToReceiverActiveData(r.(*resource.ConnectionReceiver), "")}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-receiver-constraints",
		Method:      http.MethodGet,
		Path:        is05Base + "/receivers/{receiver_id}/constraints",
		Summary:     "Receiver transport-param constraints",
		Tags:        []string{"connection"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *ReceiverIDInput) (*ConstraintsResponse, error) {
		r, ok := s.connStore.Find(input.ReceiverID, resource.TypeConnectionReceiver)
		if !ok {
			return nil, notFoundErr("receiver", input.ReceiverID)
		}
		c := r.(*resource.ConnectionReceiver)
		return &ConstraintsResponse{Body: models.ToReceiverConstraintsData(c.EndpointConstraints)}, nil
	})

	s.mux.HandleFunc("GET "+is05Base+"/senders/{sender_id}/transportfile", s.handleSenderTransportFile)
}

// ConstraintsResponse wraps a GET /constraints response body — an array of
// per-leg constraint maps (spec §4.2).
type ConstraintsResponse struct {
	Body []models.ConstraintsLegData
}

// handleSenderTransportFile serves a sender's cached transport-file SDP
// directly, bypassing Huma's JSON envelope (spec §4.5 "transport-file
// synthesizer").
func (s *Server) handleSenderTransportFile(w http.ResponseWriter, r *http.Request) {
	senderID := r.PathValue("sender_id")
	found, ok := s.connStore.Find(senderID, resource.TypeConnectionSender)
	if !ok {
		http.NotFound(w, r)
		return
	}
	c := found.(*resource.ConnectionSender)
	if c.TransportFile == "" {
		http.Error(w, "no transport file available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/sdp")
	w.Write([]byte(c.TransportFile))
}
