package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NVIDIA/nvnmos/internal/api/models"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// DeviceIDInput is the path-parameter shape shared by every per-device
// route.
type DeviceIDInput struct {
	DeviceID string `path:"device_id" example:"6d4e9a3e-..." doc:"Device UUID"`
}

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        is04Base + "/devices/",
		Summary:     "List device ids",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*ResourceListResponse, error) {
		return &ResourceListResponse{Body: idsOf(s.store, resource.TypeDevice)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        is04Base + "/devices/{device_id}",
		Summary:     "Get a device",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *DeviceIDInput) (*models.DeviceResponse, error) {
		r, ok := s.store.Find(input.DeviceID, resource.TypeDevice)
		if !ok {
			return nil, notFoundErr("device", input.DeviceID)
		}
		return &models.DeviceResponse{Body: models.ToDeviceData(r.(*resource.Device))}, nil
	})
}
