package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NVIDIA/nvnmos/internal/api/models"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// registerNodeRoutes mounts GET self — the node reports itself as the
// single resource.Node its ResourceStore holds (spec §3 invariant 1: "one
// per embedded instance").
func (s *Server) registerNodeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-self",
		Method:      http.MethodGet,
		Path:        is04Base + "/self",
		Summary:     "This node",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.NodeResponse, error) {
		nodes := s.store.Iter(resource.TypeNode)
		if len(nodes) == 0 {
			return nil, notFoundErr("node", "self")
		}
		n := nodes[0].(*resource.Node)
		return &models.NodeResponse{Body: models.ToNodeData(n)}, nil
	})
}
