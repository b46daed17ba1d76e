//nolint:revive // exported
package healthv1

const HealthServiceCheckProcedure = "/health.v1.HealthService/HealthCheck"

type HealthCheckRequest struct{}

type HealthCheckResponse struct{}
