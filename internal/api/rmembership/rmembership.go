//nolint:revive // exported
package rmembership

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/echoline/echoline/internal/api"
	"github.com/echoline/echoline/internal/api/middleware/mwauth"
	"github.com/echoline/echoline/pkg/rpc/orgv1"
	"github.com/echoline/echoline/pkg/service/sorg"
)

type MembershipServiceRPC struct {
	reader *sorg.Reader
}

type MembershipServiceRPCDeps struct {
	Reader *sorg.Reader
}

func (d *MembershipServiceRPCDeps) Validate() error {
	if d.Reader == nil {
		return fmt.Errorf("reader is required")
	}
	return nil
}

func New(deps MembershipServiceRPCDeps) MembershipServiceRPC {
	if err := deps.Validate(); err != nil {
		panic(fmt.Sprintf("MembershipServiceRPC Deps validation failed: %v", err))
	}
	return MembershipServiceRPC{reader: deps.Reader}
}

func CreateService(srv MembershipServiceRPC, options []connect.HandlerOption) ([]*api.Service, error) {
	return []*api.Service{
		{
			Path:    orgv1.MembershipServiceListProcedure,
			Handler: connect.NewUnaryHandler(orgv1.MembershipServiceListProcedure, srv.MembershipList, options...),
		},
	}, nil
}

// MembershipList returns the caller's own memberships joined with an
// organization summary. No gate beyond authentication: callers always see
// their own rows.
func (c *MembershipServiceRPC) MembershipList(ctx context.Context, _ *connect.Request[orgv1.MembershipListRequest]) (*connect.Response[orgv1.MembershipListResponse], error) {
	userID, err := mwauth.GetContextUserID(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}

	memberships, err := c.reader.ListMembershipsWithOrganizations(ctx, userID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	items := make([]*orgv1.Membership, 0, len(memberships))
	for _, m := range memberships {
		items = append(items, &orgv1.Membership{
			MemberID:         m.ID.String(),
			OrganizationID:   m.OrganizationID.String(),
			Role:             string(m.Role),
			CreatedAt:        m.CreatedAt,
			OrganizationName: m.OrganizationName,
			OrganizationSlug: m.OrganizationSlug,
		})
	}
	return connect.NewResponse(&orgv1.MembershipListResponse{Items: items}), nil
}
