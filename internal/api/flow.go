package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NVIDIA/nvnmos/internal/api/models"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// FlowIDInput is the path-parameter shape for per-flow routes.
type FlowIDInput struct {
	FlowID string `path:"flow_id" example:"6d4e9a3e-..." doc:"Flow UUID"`
}

func (s *Server) registerFlowRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-flows",
		Method:      http.MethodGet,
		Path:        is04Base + "/flows/",
		Summary:     "List flow ids",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*ResourceListResponse, error) {
		return &ResourceListResponse{Body: idsOf(s.store, resource.TypeFlow)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-flow",
		Method:      http.MethodGet,
		Path:        is04Base + "/flows/{flow_id}",
		Summary:     "Get a flow",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *FlowIDInput) (*models.FlowResponse, error) {
		r, ok := s.store.Find(input.FlowID, resource.TypeFlow)
		if !ok {
			return nil, notFoundErr("flow", input.FlowID)
		}
		return &models.FlowResponse{Body: models.ToFlowData(r.(*resource.Flow))}, nil
	})
}
