package sorg

import (
	"database/sql"

	"github.com/echoline/echoline/pkg/model/morg"
	"github.com/echoline/echoline/pkg/store/queries"
)

func nullToPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func storedRole(s string) morg.Role {
	role, err := morg.ParseStoredRole(s)
	if err != nil {
		// Unknown tokens read back as plain member rather than failing
		// the whole listing.
		return morg.RoleMember
	}
	return role
}

func convertToModelOrganization(o queries.Organization) *morg.Organization {
	return &morg.Organization{
		ID:        o.ID,
		Name:      o.Name,
		Slug:      nullToPtr(o.Slug),
		Logo:      nullToPtr(o.Logo),
		CreatedAt: o.CreatedAt,
	}
}

func convertToModelMember(m queries.Member) *morg.Member {
	return &morg.Member{
		ID:             m.ID,
		UserID:         m.UserID,
		OrganizationID: m.OrganizationID,
		Role:           storedRole(m.Role),
		CreatedAt:      m.CreatedAt,
	}
}

func convertToModelMemberWithUser(r queries.MemberWithUserRow) *morg.MemberWithUser {
	return &morg.MemberWithUser{
		Member:    *convertToModelMember(r.Member),
		UserName:  r.UserName,
		UserEmail: r.UserEmail,
		UserImage: nullToPtr(r.UserImage),
	}
}

func convertToModelMembership(r queries.MembershipWithOrganizationRow) *morg.MembershipWithOrganization {
	return &morg.MembershipWithOrganization{
		Member:           *convertToModelMember(r.Member),
		OrganizationName: r.OrganizationName,
		OrganizationSlug: nullToPtr(r.OrganizationSlug),
	}
}

func convertToModelInvitation(inv queries.Invitation) *morg.Invitation {
	return &morg.Invitation{
		ID:             inv.ID,
		Email:          inv.Email,
		Token:          inv.Token,
		InviterID:      inv.InviterID,
		OrganizationID: inv.OrganizationID,
		Role:           storedRole(inv.Role),
		Status:         morg.InvitationStatus(inv.Status),
		CreatedAt:      inv.CreatedAt,
		ExpiresAt:      inv.ExpiresAt,
	}
}
