// Package orgpolicy holds the pure authorization decisions for
// organization-scoped actions. No function here performs I/O; callers
// pass pre-fetched membership collections and always get the same answer
// for the same inputs.
package orgpolicy

import (
	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/model/morg"
)

// FindMembership returns the caller's membership in the target
// organization, or nil. This is the baseline gate for every
// organization-scoped read.
func FindMembership(memberships []*morg.Member, orgID idwrap.IDWrap) *morg.Member {
	for _, m := range memberships {
		if m.OrganizationID.Compare(orgID) == 0 {
			return m
		}
	}
	return nil
}

// CanManageMembers reports whether the role may invite, change roles,
// remove members and cancel invitations.
func CanManageMembers(role morg.Role) bool {
	return role.IsManager()
}

// CanBeInvited reports whether a role may be granted through an
// invitation. Owners are never created by invite.
func CanBeInvited(role morg.Role) bool {
	return role == morg.RoleMember || role == morg.RoleAdmin
}

// CanChangeRoleOf reports whether a member's role may be rewritten at all.
// Owner roles are immutable here; owners only come into existence at
// organization provisioning.
func CanChangeRoleOf(current morg.Role) bool {
	return current != morg.RoleOwner
}
