//nolint:revive // exported
package rhealth

import (
	"context"

	"connectrpc.com/connect"

	"github.com/echoline/echoline/internal/api"
	"github.com/echoline/echoline/pkg/rpc/healthv1"
)

type HealthServiceRPC struct{}

func New() *HealthServiceRPC {
	return &HealthServiceRPC{}
}

func CreateService(srv *HealthServiceRPC, options []connect.HandlerOption) ([]*api.Service, error) {
	return []*api.Service{
		{
			Path:    healthv1.HealthServiceCheckProcedure,
			Handler: connect.NewUnaryHandler(healthv1.HealthServiceCheckProcedure, srv.HealthCheck, options...),
		},
	}, nil
}

func (c *HealthServiceRPC) HealthCheck(ctx context.Context, _ *connect.Request[healthv1.HealthCheckRequest]) (*connect.Response[healthv1.HealthCheckResponse], error) {
	return connect.NewResponse(&healthv1.HealthCheckResponse{}), nil
}
