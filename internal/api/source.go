package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NVIDIA/nvnmos/internal/api/models"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// SourceIDInput is the path-parameter shape for per-source routes.
type SourceIDInput struct {
	SourceID string `path:"source_id" example:"6d4e9a3e-..." doc:"Source UUID"`
}

func (s *Server) registerSourceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-sources",
		Method:      http.MethodGet,
		Path:        is04Base + "/sources/",
		Summary:     "List source ids",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*ResourceListResponse, error) {
		return &ResourceListResponse{Body: idsOf(s.store, resource.TypeSource)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-source",
		Method:      http.MethodGet,
		Path:        is04Base + "/sources/{source_id}",
		Summary:     "Get a source",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *SourceIDInput) (*models.SourceResponse, error) {
		r, ok := s.store.Find(input.SourceID, resource.TypeSource)
		if !ok {
			return nil, notFoundErr("source", input.SourceID)
		}
		return &models.SourceResponse{Body: models.ToSourceData(r.(*resource.Source))}, nil
	})
}
