//nolint:revive // exported
package rorg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/echoline/echoline/internal/api"
	"github.com/echoline/echoline/internal/api/middleware/mwauth"
	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/model/morg"
	"github.com/echoline/echoline/pkg/orgpolicy"
	"github.com/echoline/echoline/pkg/rpc/orgv1"
	"github.com/echoline/echoline/pkg/service/sorg"
)

type OrgServiceRPC struct {
	reader *sorg.Reader
	writer *sorg.Writer
}

type OrgServiceRPCDeps struct {
	Reader *sorg.Reader
	Writer *sorg.Writer
}

func (d *OrgServiceRPCDeps) Validate() error {
	if d.Reader == nil {
		return fmt.Errorf("reader is required")
	}
	if d.Writer == nil {
		return fmt.Errorf("writer is required")
	}
	return nil
}

func New(deps OrgServiceRPCDeps) OrgServiceRPC {
	if err := deps.Validate(); err != nil {
		panic(fmt.Sprintf("OrgServiceRPC Deps validation failed: %v", err))
	}
	return OrgServiceRPC{
		reader: deps.Reader,
		writer: deps.Writer,
	}
}

func CreateService(srv OrgServiceRPC, options []connect.HandlerOption) ([]*api.Service, error) {
	return []*api.Service{
		{
			Path:    orgv1.OrganizationServiceMembersListProcedure,
			Handler: connect.NewUnaryHandler(orgv1.OrganizationServiceMembersListProcedure, srv.OrganizationMembersList, options...),
		},
		{
			Path:    orgv1.OrganizationServiceInvitationsListProcedure,
			Handler: connect.NewUnaryHandler(orgv1.OrganizationServiceInvitationsListProcedure, srv.OrganizationInvitationsList, options...),
		},
		{
			Path:    orgv1.OrganizationServiceInviteMemberProcedure,
			Handler: connect.NewUnaryHandler(orgv1.OrganizationServiceInviteMemberProcedure, srv.OrganizationInviteMember, options...),
		},
		{
			Path:    orgv1.OrganizationServiceUpdateMemberRoleProcedure,
			Handler: connect.NewUnaryHandler(orgv1.OrganizationServiceUpdateMemberRoleProcedure, srv.OrganizationUpdateMemberRole, options...),
		},
		{
			Path:    orgv1.OrganizationServiceRemoveMemberProcedure,
			Handler: connect.NewUnaryHandler(orgv1.OrganizationServiceRemoveMemberProcedure, srv.OrganizationRemoveMember, options...),
		},
		{
			Path:    orgv1.OrganizationServiceCancelInvitationProcedure,
			Handler: connect.NewUnaryHandler(orgv1.OrganizationServiceCancelInvitationProcedure, srv.OrganizationCancelInvitation, options...),
		},
	}, nil
}

func toAPIMember(m *morg.MemberWithUser) *orgv1.OrganizationMember {
	return &orgv1.OrganizationMember{
		MemberID:       m.ID.String(),
		OrganizationID: m.OrganizationID.String(),
		UserID:         m.UserID.String(),
		Role:           string(m.Role),
		CreatedAt:      m.CreatedAt,
		UserName:       m.UserName,
		UserEmail:      m.UserEmail,
		UserImage:      m.UserImage,
	}
}

func toAPIInvitation(inv *morg.Invitation) *orgv1.OrganizationInvitation {
	return &orgv1.OrganizationInvitation{
		InvitationID:   inv.ID.String(),
		OrganizationID: inv.OrganizationID.String(),
		InviterID:      inv.InviterID.String(),
		Email:          inv.Email,
		Role:           string(inv.Role),
		Status:         string(inv.Status),
		CreatedAt:      inv.CreatedAt,
		ExpiresAt:      inv.ExpiresAt,
	}
}

func parseID(raw, what string) (idwrap.IDWrap, *connect.Error) {
	id, err := idwrap.NewText(raw)
	if err != nil {
		return idwrap.IDWrap{}, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid %s id", what))
	}
	return id, nil
}

// callerMembership re-fetches the caller's memberships from storage on
// every action; nothing carried by the session is trusted for role checks.
func (c *OrgServiceRPC) callerMembership(ctx context.Context, orgID idwrap.IDWrap) (*morg.Member, *connect.Error) {
	userID, err := mwauth.GetContextUserID(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}
	memberships, err := c.reader.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	caller := orgpolicy.FindMembership(memberships, orgID)
	if caller == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("not a member of this organization"))
	}
	return caller, nil
}

func (c *OrgServiceRPC) callerManager(ctx context.Context, orgID idwrap.IDWrap) (*morg.Member, *connect.Error) {
	caller, cerr := c.callerMembership(ctx, orgID)
	if cerr != nil {
		return nil, cerr
	}
	if !orgpolicy.CanManageMembers(caller.Role) {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("permission denied"))
	}
	return caller, nil
}

func (c *OrgServiceRPC) OrganizationMembersList(ctx context.Context, req *connect.Request[orgv1.OrganizationMembersListRequest]) (*connect.Response[orgv1.OrganizationMembersListResponse], error) {
	orgID, cerr := parseID(req.Msg.OrganizationID, "organization")
	if cerr != nil {
		return nil, cerr
	}
	// CHECK: plain membership is enough for reads.
	if _, cerr := c.callerMembership(ctx, orgID); cerr != nil {
		return nil, cerr
	}

	members, err := c.reader.ListMembers(ctx, orgID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	items := make([]*orgv1.OrganizationMember, 0, len(members))
	for _, m := range members {
		items = append(items, toAPIMember(m))
	}
	return connect.NewResponse(&orgv1.OrganizationMembersListResponse{Items: items}), nil
}

func (c *OrgServiceRPC) OrganizationInvitationsList(ctx context.Context, req *connect.Request[orgv1.OrganizationInvitationsListRequest]) (*connect.Response[orgv1.OrganizationInvitationsListResponse], error) {
	orgID, cerr := parseID(req.Msg.OrganizationID, "organization")
	if cerr != nil {
		return nil, cerr
	}
	if _, cerr := c.callerMembership(ctx, orgID); cerr != nil {
		return nil, cerr
	}

	invitations, err := c.reader.ListPendingInvitations(ctx, orgID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	items := make([]*orgv1.OrganizationInvitation, 0, len(invitations))
	for _, inv := range invitations {
		items = append(items, toAPIInvitation(inv))
	}
	return connect.NewResponse(&orgv1.OrganizationInvitationsListResponse{Items: items}), nil
}

func (c *OrgServiceRPC) OrganizationInviteMember(ctx context.Context, req *connect.Request[orgv1.OrganizationInviteMemberRequest]) (*connect.Response[orgv1.OrganizationInviteMemberResponse], error) {
	orgID, cerr := parseID(req.Msg.OrganizationID, "organization")
	if cerr != nil {
		return nil, cerr
	}
	caller, cerr := c.callerManager(ctx, orgID)
	if cerr != nil {
		return nil, cerr
	}

	role, err := morg.ParseRole(req.Msg.Role)
	if err != nil || !orgpolicy.CanBeInvited(role) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("role must be member or admin"))
	}

	email := strings.ToLower(strings.TrimSpace(req.Msg.Email))
	if email == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("email is required"))
	}

	_, err = c.reader.GetMemberByEmail(ctx, orgID, email)
	if err == nil {
		return nil, connect.NewError(connect.CodeAlreadyExists, errors.New("User already a member"))
	}
	if !errors.Is(err, sorg.ErrMemberNotFound) {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	now := sorg.Now()
	inv := &morg.Invitation{
		ID:             idwrap.NewNow(),
		Email:          email,
		Token:          uuid.NewString(),
		InviterID:      caller.UserID,
		OrganizationID: orgID,
		Role:           role,
		Status:         morg.StatusPending,
		CreatedAt:      now,
		ExpiresAt:      now + int64(morg.InvitationTTL.Seconds()),
	}
	if err := c.writer.CreateInvitation(ctx, inv); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&orgv1.OrganizationInviteMemberResponse{
		Invitation: toAPIInvitation(inv),
	}), nil
}

func (c *OrgServiceRPC) OrganizationUpdateMemberRole(ctx context.Context, req *connect.Request[orgv1.OrganizationUpdateMemberRoleRequest]) (*connect.Response[orgv1.OrganizationUpdateMemberRoleResponse], error) {
	orgID, cerr := parseID(req.Msg.OrganizationID, "organization")
	if cerr != nil {
		return nil, cerr
	}
	memberID, cerr := parseID(req.Msg.MemberID, "member")
	if cerr != nil {
		return nil, cerr
	}
	if _, cerr := c.callerManager(ctx, orgID); cerr != nil {
		return nil, cerr
	}

	role, err := morg.ParseRole(req.Msg.Role)
	if err != nil || role == morg.RoleOwner {
		// No promotion path to owner exists.
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("role must be member or admin"))
	}

	target, err := c.reader.GetMember(ctx, orgID, memberID)
	if err != nil {
		if errors.Is(err, sorg.ErrMemberNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, errors.New("Member not found"))
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if !orgpolicy.CanChangeRoleOf(target.Role) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("Owner role cannot be changed"))
	}

	if err := c.writer.UpdateMemberRole(ctx, orgID, memberID, role); err != nil {
		if errors.Is(err, sorg.ErrMemberNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, errors.New("Member not found"))
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	// Return the member re-joined with the user profile, not the raw
	// update result.
	updated, err := c.reader.GetMemberWithUser(ctx, orgID, memberID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&orgv1.OrganizationUpdateMemberRoleResponse{
		Member: toAPIMember(updated),
	}), nil
}

func (c *OrgServiceRPC) OrganizationRemoveMember(ctx context.Context, req *connect.Request[orgv1.OrganizationRemoveMemberRequest]) (*connect.Response[orgv1.OrganizationRemoveMemberResponse], error) {
	orgID, cerr := parseID(req.Msg.OrganizationID, "organization")
	if cerr != nil {
		return nil, cerr
	}
	memberID, cerr := parseID(req.Msg.MemberID, "member")
	if cerr != nil {
		return nil, cerr
	}
	if _, cerr := c.callerManager(ctx, orgID); cerr != nil {
		return nil, cerr
	}

	if err := c.writer.RemoveMember(ctx, orgID, memberID); err != nil {
		switch {
		case errors.Is(err, sorg.ErrMemberNotFound):
			return nil, connect.NewError(connect.CodeNotFound, errors.New("Member not found"))
		case errors.Is(err, sorg.ErrLastOwner):
			return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("Cannot remove only owner"))
		default:
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}
	return connect.NewResponse(&orgv1.OrganizationRemoveMemberResponse{}), nil
}

func (c *OrgServiceRPC) OrganizationCancelInvitation(ctx context.Context, req *connect.Request[orgv1.OrganizationCancelInvitationRequest]) (*connect.Response[orgv1.OrganizationCancelInvitationResponse], error) {
	orgID, cerr := parseID(req.Msg.OrganizationID, "organization")
	if cerr != nil {
		return nil, cerr
	}
	invitationID, cerr := parseID(req.Msg.InvitationID, "invitation")
	if cerr != nil {
		return nil, cerr
	}
	if _, cerr := c.callerManager(ctx, orgID); cerr != nil {
		return nil, cerr
	}

	// Unconditional delete: cancelling an invitation that is already gone
	// is a no-op.
	if err := c.writer.DeleteInvitation(ctx, orgID, invitationID); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&orgv1.OrganizationCancelInvitationResponse{}), nil
}
