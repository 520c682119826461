package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NVIDIA/nvnmos/internal/api/models"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// SenderIDInput is the path-parameter shape for per-sender routes.
type SenderIDInput struct {
	SenderID string `path:"sender_id" example:"6d4e9a3e-..." doc:"Sender UUID"`
}

func (s *Server) registerSenderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-senders",
		Method:      http.MethodGet,
		Path:        is04Base + "/senders/",
		Summary:     "List sender ids",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*ResourceListResponse, error) {
		return &ResourceListResponse{Body: idsOf(s.store, resource.TypeSender)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-sender",
		Method:      http.MethodGet,
		Path:        is04Base + "/senders/{sender_id}",
		Summary:     "Get a sender",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *SenderIDInput) (*models.SenderResponse, error) {
		r, ok := s.store.Find(input.SenderID, resource.TypeSender)
		if !ok {
			return nil, notFoundErr("sender", input.SenderID)
		}
		return &models.SenderResponse{Body: models.ToSenderData(r.(*resource.Sender))}, nil
	})
}
