package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NVIDIA/nvnmos/internal/api/models"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// ReceiverIDInput is the path-parameter shape for per-receiver routes.
type ReceiverIDInput struct {
	ReceiverID string `path:"receiver_id" example:"6d4e9a3e-..." doc:"Receiver UUID"`
}

func (s *Server) registerReceiverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-receivers",
		Method:      http.MethodGet,
		Path:        is04Base + "/receivers/",
		Summary:     "List receiver ids",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*ResourceListResponse, error) {
		return &ResourceListResponse{Body: idsOf(s.store, resource.TypeReceiver)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-receiver",
		Method:      http.MethodGet,
		Path:        is04Base + "/receivers/{receiver_id}",
		Summary:     "Get a receiver",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *ReceiverIDInput) (*models.ReceiverResponse, error) {
		r, ok := s.store.Find(input.ReceiverID, resource.TypeReceiver)
		if !ok {
			return nil, notFoundErr("receiver", input.ReceiverID)
		}
		return &models.ReceiverResponse{Body: models.ToReceiverData(r.(*resource.Receiver))}, nil
	})
}
