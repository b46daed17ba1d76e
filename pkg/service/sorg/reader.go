package sorg

import (
	"context"
	"database/sql"

	"github.com/echoline/echoline/pkg/dbtime"
	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/model/morg"
	"github.com/echoline/echoline/pkg/store/queries"
	"github.com/echoline/echoline/pkg/translate/tgeneric"
)

type Reader struct {
	queries *queries.Queries
}

func NewReader(db *sql.DB) *Reader {
	return &Reader{queries: queries.New(db)}
}

func (r *Reader) GetOrganization(ctx context.Context, id idwrap.IDWrap) (*morg.Organization, error) {
	o, err := r.queries.GetOrganization(ctx, id)
	err = tgeneric.ReplaceRootWithSub(sql.ErrNoRows, ErrOrganizationNotFound, err)
	if err != nil {
		return nil, err
	}
	return convertToModelOrganization(o), nil
}

// ListMembershipsByUser returns every membership the user holds across all
// organizations. It is the source collection for each policy check.
func (r *Reader) ListMembershipsByUser(ctx context.Context, userID idwrap.IDWrap) ([]*morg.Member, error) {
	rows, err := r.queries.ListMembersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tgeneric.MassConvert(rows, convertToModelMember), nil
}

func (r *Reader) ListMembershipsWithOrganizations(ctx context.Context, userID idwrap.IDWrap) ([]*morg.MembershipWithOrganization, error) {
	rows, err := r.queries.ListMembershipsWithOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tgeneric.MassConvert(rows, convertToModelMembership), nil
}

func (r *Reader) ListMembers(ctx context.Context, orgID idwrap.IDWrap) ([]*morg.MemberWithUser, error) {
	rows, err := r.queries.ListMembersWithUsersByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return tgeneric.MassConvert(rows, convertToModelMemberWithUser), nil
}

func (r *Reader) GetMember(ctx context.Context, orgID, memberID idwrap.IDWrap) (*morg.Member, error) {
	m, err := r.queries.GetMemberByOrg(ctx, queries.GetMemberByOrgParams{
		OrganizationID: orgID,
		ID:             memberID,
	})
	err = tgeneric.ReplaceRootWithSub(sql.ErrNoRows, ErrMemberNotFound, err)
	if err != nil {
		return nil, err
	}
	return convertToModelMember(m), nil
}

func (r *Reader) GetMemberByUserAndOrg(ctx context.Context, userID, orgID idwrap.IDWrap) (*morg.Member, error) {
	m, err := r.queries.GetMemberByUserAndOrg(ctx, queries.GetMemberByUserAndOrgParams{
		UserID:         userID,
		OrganizationID: orgID,
	})
	err = tgeneric.ReplaceRootWithSub(sql.ErrNoRows, ErrMemberNotFound, err)
	if err != nil {
		return nil, err
	}
	return convertToModelMember(m), nil
}

// GetMemberByEmail finds the organization member behind an email address,
// if any. Used to block duplicate invites.
func (r *Reader) GetMemberByEmail(ctx context.Context, orgID idwrap.IDWrap, email string) (*morg.Member, error) {
	m, err := r.queries.GetMemberByEmailInOrg(ctx, queries.GetMemberByEmailInOrgParams{
		OrganizationID: orgID,
		Email:          email,
	})
	err = tgeneric.ReplaceRootWithSub(sql.ErrNoRows, ErrMemberNotFound, err)
	if err != nil {
		return nil, err
	}
	return convertToModelMember(m), nil
}

// GetMemberWithUser returns the member re-joined with the user profile, so
// mutation responses always carry the denormalized display fields.
func (r *Reader) GetMemberWithUser(ctx context.Context, orgID, memberID idwrap.IDWrap) (*morg.MemberWithUser, error) {
	rows, err := r.queries.ListMembersWithUsersByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ID.Compare(memberID) == 0 {
			return convertToModelMemberWithUser(row), nil
		}
	}
	return nil, ErrMemberNotFound
}

// HasOtherOwner reports whether the organization keeps at least one owner
// after excluding the given member. This is the single source of truth for
// the last-owner invariant.
func (r *Reader) HasOtherOwner(ctx context.Context, orgID, excludingMemberID idwrap.IDWrap) (bool, error) {
	n, err := r.queries.CountOtherOwners(ctx, queries.CountOtherOwnersParams{
		OrganizationID: orgID,
		ExcludeID:      excludingMemberID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Reader) ListPendingInvitations(ctx context.Context, orgID idwrap.IDWrap) ([]*morg.Invitation, error) {
	rows, err := r.queries.ListPendingInvitationsByOrganization(ctx, queries.ListPendingInvitationsParams{
		OrganizationID: orgID,
		Now:            dbtime.DBNow().Unix(),
	})
	if err != nil {
		return nil, err
	}
	return tgeneric.MassConvert(rows, convertToModelInvitation), nil
}

func (r *Reader) GetInvitation(ctx context.Context, orgID, invitationID idwrap.IDWrap) (*morg.Invitation, error) {
	inv, err := r.queries.GetInvitation(ctx, queries.GetInvitationParams{
		OrganizationID: orgID,
		ID:             invitationID,
	})
	err = tgeneric.ReplaceRootWithSub(sql.ErrNoRows, ErrInvitationNotFound, err)
	if err != nil {
		return nil, err
	}
	return convertToModelInvitation(inv), nil
}
